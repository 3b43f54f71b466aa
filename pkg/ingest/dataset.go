package ingest

import (
	"path/filepath"
	"time"

	"github.com/David-Botos/retail-ingress/pkg/cleaner"
	"github.com/David-Botos/retail-ingress/pkg/model"
)

// LoadFunc reads and cleans one source file
type LoadFunc func(path string) (*model.Table, error)

// Dataset is one registry entry: a logical name, its source file and cleaner
type Dataset struct {
	Name string
	Path string
	Load LoadFunc
}

// Registry is the ordered list of datasets processed by a run
type Registry []Dataset

// Source file names of the retail exports, keyed by logical dataset name
const (
	AmazonSalesFile        = "Amazon Sale Report.csv"
	InternationalSalesFile = "International sale Report.csv"
	InventoryFile          = "Sale Report.csv"
	PricingMay2022File     = "May-2022.csv"
	PricingMarch2021File   = "P  L March 2021.csv"
	ExpensesFile           = "Expense IIGF.csv"
	WarehouseCostsFile     = "Cloud Warehouse Compersion Chart.csv"
)

// DefaultRegistry returns the seven retail datasets found under dir, in
// processing order.
func DefaultRegistry(dir string, c *cleaner.DataCleaner) Registry {
	return Registry{
		{Name: "amazon_sales", Path: filepath.Join(dir, AmazonSalesFile), Load: c.AmazonSales},
		{Name: "international_sales", Path: filepath.Join(dir, InternationalSalesFile), Load: c.InternationalSales},
		{Name: "inventory", Path: filepath.Join(dir, InventoryFile), Load: c.Inventory},
		{Name: "pricing_may2022", Path: filepath.Join(dir, PricingMay2022File), Load: c.Pricing},
		{Name: "pricing_march2021", Path: filepath.Join(dir, PricingMarch2021File), Load: c.Pricing},
		{Name: "expenses", Path: filepath.Join(dir, ExpensesFile), Load: c.Expenses},
		{Name: "warehouse_costs", Path: filepath.Join(dir, WarehouseCostsFile), Load: c.WarehouseCosts},
	}
}

// Names returns the logical names in order
func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, ds := range r {
		names[i] = ds.Name
	}
	return names
}

// OutputPath returns where the dataset's Parquet file is written
func (ds Dataset) OutputPath(outputDir string) string {
	return filepath.Join(outputDir, ds.Name+".parquet")
}

// DatasetResult represents the outcome of processing one dataset
type DatasetResult struct {
	Name               string
	Path               string
	Output             string
	Skipped            bool
	RowsRead           int64
	RowsWritten        int64
	CleaningOperations int
	Verification       *VerificationReport
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// NewDatasetResult initializes a result for a dataset
func NewDatasetResult(ds Dataset) *DatasetResult {
	return &DatasetResult{
		Name:      ds.Name,
		Path:      ds.Path,
		StartTime: time.Now(),
	}
}

// Complete marks the dataset as done and calculates duration
func (r *DatasetResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
