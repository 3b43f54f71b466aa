package cleaner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

func newTestCleaner(t *testing.T) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertNoColumns(t *testing.T, table *model.Table, names ...string) {
	t.Helper()
	for _, name := range names {
		assert.Falsef(t, table.HasColumn(name), "column %q should have been dropped", name)
	}
}

func TestNewDataCleaner_RequiresLogger(t *testing.T) {
	_, err := NewDataCleaner(nil)
	assert.Error(t, err)
}

func TestAmazonSales(t *testing.T) {
	path := writeCSV(t, "Amazon Sale Report.csv",
		"index,Order ID,Date,Status,Qty,Amount,B2B\n"+
			"0,405-8078784,04-30-22,Shipped,1,647.62,False\n"+
			"1,171-9198151,,Cancelled,0,,False\n"+
			"2,404-0687676,4-29-22,Shipped,2,abc,True\n")

	table, err := newTestCleaner(t).AmazonSales(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"index", "Order ID", "Status", "date", "amount", "qty", "b2b"}, table.ColumnNames())
	assertNoColumns(t, table, "Date", "Amount", "Qty", "B2B")
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, 3, table.SourceRows)

	assert.Equal(t, []interface{}{"405-8078784", "404-0687676"}, table.Column("Order ID").Values)
	assert.Equal(t, []interface{}{date(2022, time.April, 30), date(2022, time.April, 29)}, table.Column("date").Values)
	assert.Equal(t, []interface{}{647.62, nil}, table.Column("amount").Values)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, table.Column("qty").Values)
	assert.Equal(t, []interface{}{false, true}, table.Column("b2b").Values)

	assert.Equal(t, model.TypeTimestamp, table.Column("date").Type)
	assert.Equal(t, model.TypeFloat, table.Column("amount").Type)
	assert.Equal(t, model.TypeInt, table.Column("qty").Type)
	assert.Equal(t, model.TypeBool, table.Column("b2b").Type)

	require.Len(t, table.Operations, 1)
	op := table.Operations[0]
	assert.Equal(t, "amount", op.ColumnName)
	assert.Equal(t, "abc", op.OriginalValue)
	assert.Nil(t, op.NewValue)
	assert.Equal(t, "1", op.RowIdentifier)
	assert.Equal(t, model.OperationCoercionFailed, op.CleaningOperation)
	assert.Contains(t, op.CleaningReason, "cannot_convert_to_float")
}

func TestAmazonSales_UnparseableDateBecomesMissing(t *testing.T) {
	path := writeCSV(t, "Amazon Sale Report.csv",
		"Date,Qty,Amount,B2B\n"+
			"2022/04/30,1,10,False\n")

	table, err := newTestCleaner(t).AmazonSales(path)
	require.NoError(t, err)

	assert.Equal(t, 1, table.NumRows())
	assert.Equal(t, []interface{}{nil}, table.Column("date").Values)
}

func TestAmazonSales_NaNSpellingsAreMissing(t *testing.T) {
	path := writeCSV(t, "Amazon Sale Report.csv",
		"Date,Qty,Amount,B2B\n"+
			"04-30-22,1,NAN,False\n"+
			"04-30-22,1,nAn,False\n"+
			"04-30-22,1,Nan,False\n"+
			"04-30-22,1,12.5,False\n")

	table, err := newTestCleaner(t).AmazonSales(path)
	require.NoError(t, err)

	assert.Equal(t, []interface{}{nil, nil, nil, 12.5}, table.Column("amount").Values)
	assert.Empty(t, table.Operations)
}

func TestAmazonSales_MissingDateColumn(t *testing.T) {
	path := writeCSV(t, "Amazon Sale Report.csv", "Qty,Amount,B2B\n1,10,False\n")

	_, err := newTestCleaner(t).AmazonSales(path)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestInternationalSales(t *testing.T) {
	path := writeCSV(t, "International sale Report.csv",
		"DATE,CUSTOMER,RATE,GROSS AMT,PCS\n"+
			"06-05-21,REVATHY LOGANATHAN,616.56,617,1\n"+
			"07-11-21,MULBERRIES BOUTIQUE,bad,1000.5,2.0\n")

	table, err := newTestCleaner(t).InternationalSales(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"CUSTOMER", "date", "rate", "gross_amt", "pcs"}, table.ColumnNames())
	assertNoColumns(t, table, "DATE", "RATE", "GROSS AMT", "PCS")

	assert.Equal(t, []interface{}{date(2021, time.June, 5), date(2021, time.July, 11)}, table.Column("date").Values)
	assert.Equal(t, []interface{}{616.56, nil}, table.Column("rate").Values)
	assert.Equal(t, []interface{}{617.0, 1000.5}, table.Column("gross_amt").Values)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, table.Column("pcs").Values)
	assert.Len(t, table.Operations, 1)
}

func TestInventory(t *testing.T) {
	path := writeCSV(t, "Sale Report.csv",
		"SKU Code,Design No.,Stock,Category,Size,Color\n"+
			"AN201-RED-L,AN201,5,AN : Electronics,L,Red\n"+
			"AN202-BLU-M,AN202,abc,  KURTA ,M,Blue\n"+
			"AN203-PNK-S,AN203,,an:Set,S,Pink\n"+
			"AN204-BLK-S,AN204,7.9,,S,Black\n")

	table, err := newTestCleaner(t).Inventory(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU Code", "Design No.", "Size", "Color", "category", "stock"}, table.ColumnNames())
	assertNoColumns(t, table, "Category", "Stock")

	assert.Equal(t, []interface{}{"Electronics", "KURTA", "Set", nil}, table.Column("category").Values)
	assert.Equal(t, []interface{}{int64(5), int64(0), int64(0), int64(7)}, table.Column("stock").Values)
	assert.Equal(t, 0, table.Column("stock").NullCount())

	require.Len(t, table.Operations, 1)
	assert.Equal(t, model.OperationDefaulted, table.Operations[0].CleaningOperation)
	assert.Equal(t, int64(0), table.Operations[0].NewValue)
}

func TestPricing_TPColumnSelection(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		columns  []string
		tp       []interface{}
		dropped  []string
		mrpNames []string
	}{
		{
			name:     "TP present",
			csv:      "Sku,Weight,TP,MRP-X\ns1,0.3,538,2178\n",
			columns:  []string{"Sku", "MRP-X", "weight", "tp"},
			tp:       []interface{}{538.0},
			dropped:  []string{"Weight", "TP"},
			mrpNames: []string{"MRP-X"},
		},
		{
			name:     "only TP 1 present",
			csv:      "Sku,Weight,TP 1,TP 2,MRP-X\ns1,0.3,430,435,999\n",
			columns:  []string{"Sku", "TP 2", "MRP-X", "weight", "tp"},
			tp:       []interface{}{430.0},
			dropped:  []string{"Weight", "TP 1"},
			mrpNames: []string{"MRP-X"},
		},
		{
			name:     "TP wins over TP 1",
			csv:      "Sku,Weight,TP 1,TP,mrp\ns1,0.3,430,538,999\n",
			columns:  []string{"Sku", "TP 1", "mrp", "weight", "tp"},
			tp:       []interface{}{538.0},
			dropped:  []string{"Weight", "TP"},
			mrpNames: []string{"mrp"},
		},
		{
			name:     "no TP column",
			csv:      "Sku,Weight,Mrp Old\ns1,0.3,100\n",
			columns:  []string{"Sku", "Mrp Old", "weight"},
			tp:       nil,
			dropped:  []string{"Weight"},
			mrpNames: []string{"Mrp Old"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, "May-2022.csv", tt.csv)

			table, err := newTestCleaner(t).Pricing(path)
			require.NoError(t, err)

			assert.Equal(t, tt.columns, table.ColumnNames())
			assertNoColumns(t, table, tt.dropped...)
			assert.Equal(t, []interface{}{0.3}, table.Column("weight").Values)

			if tt.tp == nil {
				assert.False(t, table.HasColumn("tp"))
			} else {
				assert.Equal(t, tt.tp, table.Column("tp").Values)
			}

			for _, name := range tt.mrpNames {
				assert.Equal(t, model.TypeFloat, table.Column(name).Type, name)
			}
		})
	}
}

func TestPricing_AllMRPColumnsBecomeNumeric(t *testing.T) {
	path := writeCSV(t, "P  L March 2021.csv",
		"Sku,Catalog,Weight,TP 1,MRP Old,Final MRP Old,Ajio MRP,Amazon Mrp\n"+
			"s1,Moments,0.3,538,2178,2295,Nill,2295\n")

	table, err := newTestCleaner(t).Pricing(path)
	require.NoError(t, err)

	assert.Equal(t, []interface{}{2178.0}, table.Column("MRP Old").Values)
	assert.Equal(t, []interface{}{2295.0}, table.Column("Final MRP Old").Values)
	assert.Equal(t, []interface{}{nil}, table.Column("Ajio MRP").Values)
	assert.Equal(t, []interface{}{2295.0}, table.Column("Amazon Mrp").Values)
	assert.Equal(t, model.TypeString, table.Column("Catalog").Type)
	assert.Len(t, table.Operations, 1)
}

func TestPricing_MissingWeight(t *testing.T) {
	path := writeCSV(t, "May-2022.csv", "Sku,TP\ns1,10\n")

	_, err := newTestCleaner(t).Pricing(path)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestPassthroughDatasets(t *testing.T) {
	c := newTestCleaner(t)
	content := "Date,Recived Amount,Expance,Amount\n04-01-22,1000,Large Bag,60\n"

	for name, load := range map[string]func(string) (*model.Table, error){
		"Expense IIGF.csv":                     c.Expenses,
		"Cloud Warehouse Compersion Chart.csv": c.WarehouseCosts,
	} {
		t.Run(name, func(t *testing.T) {
			table, err := load(writeCSV(t, name, content))
			require.NoError(t, err)

			assert.Equal(t, []string{"Date", "Recived Amount", "Expance", "Amount"}, table.ColumnNames())
			assert.Equal(t, []interface{}{"04-01-22"}, table.Column("Date").Values)
			assert.Equal(t, []interface{}{int64(60)}, table.Column("Amount").Values)
			assert.Empty(t, table.Operations)
		})
	}
}

func TestMalformedCSVIsAnError(t *testing.T) {
	path := writeCSV(t, "Expense IIGF.csv", "a,b\n1,2,3\n")

	_, err := newTestCleaner(t).Expenses(path)
	assert.Error(t, err)
}
