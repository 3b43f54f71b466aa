package cleaner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// categoryPrefix matches the "AN :" marker some inventory categories carry
var categoryPrefix = regexp.MustCompile(`(?i)^AN\s*:\s*`)

// AmazonSales cleans "Amazon Sale Report.csv".
// Rows without a Date are dropped before any coercion.
func (c *DataCleaner) AmazonSales(path string) (*model.Table, error) {
	t, err := c.load(path)
	if err != nil {
		return nil, err
	}

	date := t.Column("Date")
	if date == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, "Date")
	}
	before := t.NumRows()
	t.FilterRows(func(row int) bool { return date.Values[row] != nil })
	if dropped := before - t.NumRows(); dropped > 0 {
		c.logger.Info("Dropped rows without a date", zap.Int("count", dropped))
	}

	err = c.applyConversions(t, []conversion{
		{Source: "Date", Target: "date", Type: model.TypeTimestamp, Coerce: dateValue, Reason: "cannot_convert_to_date"},
		{Source: "Amount", Target: "amount", Type: model.TypeFloat, Coerce: floatValue, Reason: "cannot_convert_to_float"},
		{Source: "Qty", Target: "qty", Type: model.TypeInt, Coerce: intValue, Reason: "cannot_convert_to_int"},
		{Source: "B2B", Target: "b2b", Type: model.TypeBool, Coerce: boolValue, Reason: "cannot_convert_to_bool"},
	})
	if err != nil {
		return nil, err
	}

	t.DropColumns("Date", "Amount", "Qty", "B2B")
	return t, nil
}

// InternationalSales cleans "International sale Report.csv"
func (c *DataCleaner) InternationalSales(path string) (*model.Table, error) {
	t, err := c.load(path)
	if err != nil {
		return nil, err
	}

	err = c.applyConversions(t, []conversion{
		{Source: "DATE", Target: "date", Type: model.TypeTimestamp, Coerce: dateValue, Reason: "cannot_convert_to_date"},
		{Source: "RATE", Target: "rate", Type: model.TypeFloat, Coerce: floatValue, Reason: "cannot_convert_to_float"},
		{Source: "GROSS AMT", Target: "gross_amt", Type: model.TypeFloat, Coerce: floatValue, Reason: "cannot_convert_to_float"},
		{Source: "PCS", Target: "pcs", Type: model.TypeInt, Coerce: intValue, Reason: "cannot_convert_to_int"},
	})
	if err != nil {
		return nil, err
	}

	t.DropColumns("DATE", "RATE", "GROSS AMT", "PCS")
	return t, nil
}

// Inventory cleans "Sale Report.csv".
// Stock that is missing or not numeric becomes zero.
func (c *DataCleaner) Inventory(path string) (*model.Table, error) {
	t, err := c.load(path)
	if err != nil {
		return nil, err
	}

	category, err := normalizeCategory(t)
	if err != nil {
		return nil, err
	}

	stock, operations, err := stockColumn(t)
	if err != nil {
		return nil, err
	}
	t.Operations = append(t.Operations, operations...)

	for _, col := range []*model.Column{category, stock} {
		if err := t.SetColumn(col); err != nil {
			return nil, fmt.Errorf("failed to set column %s: %w", col.Name, err)
		}
	}

	t.DropColumns("Category", "Stock")
	return t, nil
}

func normalizeCategory(t *model.Table) (*model.Column, error) {
	source := t.Column("Category")
	if source == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, "Category")
	}

	col := model.NewColumn("category", model.TypeString, len(source.Values))
	for _, value := range source.Values {
		if value == nil {
			col.Values = append(col.Values, nil)
			continue
		}
		stripped := categoryPrefix.ReplaceAllString(cellText(value), "")
		col.Values = append(col.Values, strings.TrimSpace(stripped))
	}
	return col, nil
}

func stockColumn(t *model.Table) (*model.Column, []model.CleaningOperation, error) {
	source := t.Column("Stock")
	if source == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingColumn, "Stock")
	}

	col := model.NewColumn("stock", model.TypeInt, len(source.Values))
	var operations []model.CleaningOperation

	for row, value := range source.Values {
		if value == nil {
			col.Values = append(col.Values, int64(0))
			continue
		}

		stock, err := parseTruncatedInt(cellText(value))
		if err != nil {
			col.Values = append(col.Values, int64(0))
			operations = append(operations, model.CleaningOperation{
				ColumnName:        "stock",
				OriginalValue:     cellText(value),
				NewValue:          int64(0),
				RowIdentifier:     strconv.Itoa(row),
				CleaningOperation: model.OperationDefaulted,
				CleaningReason:    fmt.Sprintf("cannot_convert_to_int: %v", err),
			})
			continue
		}
		col.Values = append(col.Values, stock)
	}

	return col, operations, nil
}

// Pricing cleans the monthly pricing sheets ("May-2022.csv",
// "P  L March 2021.csv"), which share one layout family.
//
// tp is taken from "TP" when present, otherwise from "TP 1". Every column
// whose name contains "mrp" in any case is treated as a price and made
// numeric in place.
func (c *DataCleaner) Pricing(path string) (*model.Table, error) {
	t, err := c.load(path)
	if err != nil {
		return nil, err
	}

	conversions := []conversion{
		{Source: "Weight", Target: "weight", Type: model.TypeFloat, Coerce: floatValue, Reason: "cannot_convert_to_float"},
	}
	drop := []string{"Weight"}

	switch {
	case t.HasColumn("TP"):
		conversions = append(conversions, conversion{Source: "TP", Target: "tp", Type: model.TypeFloat, Coerce: floatValue, Reason: "cannot_convert_to_float"})
		drop = append(drop, "TP")
	case t.HasColumn("TP 1"):
		conversions = append(conversions, conversion{Source: "TP 1", Target: "tp", Type: model.TypeFloat, Coerce: floatValue, Reason: "cannot_convert_to_float"})
		drop = append(drop, "TP 1")
	default:
		c.logger.Warn("No TP column found, tp not derived", zap.String("file", path))
	}

	if err := c.applyConversions(t, conversions); err != nil {
		return nil, err
	}

	mrpColumns := t.ColumnsContaining("mrp")
	if len(mrpColumns) > 0 {
		names := make([]string, len(mrpColumns))
		priceConversions := make([]conversion, len(mrpColumns))
		for i, col := range mrpColumns {
			names[i] = col.Name
			priceConversions[i] = conversion{Source: col.Name, Target: col.Name, Type: model.TypeFloat, Coerce: floatValue, Reason: "cannot_convert_to_float"}
		}
		c.logger.Info("Coercing MRP columns", zap.Strings("columns", names))

		if err := c.applyConversions(t, priceConversions); err != nil {
			return nil, err
		}
	}

	t.DropColumns(drop...)
	return t, nil
}

// Expenses loads "Expense IIGF.csv" unchanged
func (c *DataCleaner) Expenses(path string) (*model.Table, error) {
	return c.load(path)
}

// WarehouseCosts loads "Cloud Warehouse Compersion Chart.csv" unchanged
func (c *DataCleaner) WarehouseCosts(path string) (*model.Table, error) {
	return c.load(path)
}
