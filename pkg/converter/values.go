// pkg/converter/values.go
package converter

import (
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// ErrTypeMismatch is returned when a value does not match its column type
var ErrTypeMismatch = errors.New("value does not match column type")

// BuildRecord converts a table to a single Arrow record.
// The caller must Release the returned record.
func (c *TypeConverter) BuildRecord(table *model.Table) (arrow.Record, error) {
	schema, err := c.Schema(table)
	if err != nil {
		return nil, err
	}

	bldr := array.NewRecordBuilder(c.mem, schema)
	defer bldr.Release()

	for i, col := range table.Columns {
		if err := appendColumn(bldr.Field(i), col); err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
	}

	return bldr.NewRecord(), nil
}

// appendColumn appends every value of col to the field builder
func appendColumn(fb array.Builder, col *model.Column) error {
	fb.Reserve(len(col.Values))

	for row, value := range col.Values {
		if value == nil {
			fb.AppendNull()
			continue
		}

		ok := true
		switch b := fb.(type) {
		case *array.StringBuilder:
			var v string
			if v, ok = value.(string); ok {
				b.Append(v)
			}
		case *array.Int64Builder:
			var v int64
			if v, ok = value.(int64); ok {
				b.Append(v)
			}
		case *array.Float64Builder:
			var v float64
			if v, ok = value.(float64); ok {
				b.Append(v)
			}
		case *array.BooleanBuilder:
			var v bool
			if v, ok = value.(bool); ok {
				b.Append(v)
			}
		case *array.TimestampBuilder:
			var v time.Time
			if v, ok = value.(time.Time); ok {
				b.Append(arrow.Timestamp(v.UnixNano()))
			}
		default:
			return fmt.Errorf("unsupported builder %T", fb)
		}

		if !ok {
			return fmt.Errorf("row %d: %w: %T in %s column", row, ErrTypeMismatch, value, col.Type)
		}
	}

	return nil
}

// TableFromArrow converts an Arrow table read from a file into a table
func (c *TypeConverter) TableFromArrow(tbl arrow.Table) (*model.Table, error) {
	schema := tbl.Schema()
	table := &model.Table{Columns: make([]*model.Column, 0, schema.NumFields())}

	for i, field := range schema.Fields() {
		typ, err := c.MapArrowType(field.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}

		col := model.NewColumn(field.Name, typ, int(tbl.NumRows()))
		for _, chunk := range tbl.Column(i).Data().Chunks() {
			values, err := arrayValues(chunk)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", field.Name, err)
			}
			col.Values = append(col.Values, values...)
		}
		table.Columns = append(table.Columns, col)
	}

	table.SourceRows = table.NumRows()
	return table, nil
}

// arrayValues extracts the values of one chunk, nil for nulls
func arrayValues(arr arrow.Array) ([]interface{}, error) {
	values := make([]interface{}, arr.Len())

	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}

		switch a := arr.(type) {
		case *array.String:
			values[i] = a.Value(i)
		case *array.LargeString:
			values[i] = a.Value(i)
		case *array.Int64:
			values[i] = a.Value(i)
		case *array.Int32:
			values[i] = int64(a.Value(i))
		case *array.Float64:
			values[i] = a.Value(i)
		case *array.Boolean:
			values[i] = a.Value(i)
		case *array.Timestamp:
			unit := a.DataType().(*arrow.TimestampType).Unit
			values[i] = a.Value(i).ToTime(unit)
		default:
			return nil, fmt.Errorf("unsupported array %T", arr)
		}
	}

	return values, nil
}
