// pkg/converter/mapping.go
package converter

import (
	"fmt"

	"github.com/apache/arrow/go/v16/arrow"
	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// inMemoryTimestamp is the Arrow type timestamps are built with before the
// writer coerces them to the configured storage unit.
var inMemoryTimestamp = &arrow.TimestampType{Unit: arrow.Nanosecond}

// MapColumnType converts a column type to its Arrow data type
func (c *TypeConverter) MapColumnType(typ model.ColumnType) (arrow.DataType, error) {
	switch typ {
	case model.TypeString:
		return arrow.BinaryTypes.String, nil
	case model.TypeInt:
		return arrow.PrimitiveTypes.Int64, nil
	case model.TypeFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case model.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case model.TypeTimestamp:
		return inMemoryTimestamp, nil
	default:
		return nil, fmt.Errorf("unknown column type: %s", typ)
	}
}

// MapArrowType converts an Arrow data type read from a file back to a column type
func (c *TypeConverter) MapArrowType(dt arrow.DataType) (model.ColumnType, error) {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return model.TypeString, nil
	case arrow.INT64, arrow.INT32:
		return model.TypeInt, nil
	case arrow.FLOAT64:
		return model.TypeFloat, nil
	case arrow.BOOL:
		return model.TypeBool, nil
	case arrow.TIMESTAMP:
		return model.TypeTimestamp, nil
	default:
		c.logger.Warn("Unsupported Arrow type encountered",
			zap.String("arrowType", dt.String()))
		return model.TypeString, fmt.Errorf("unsupported arrow type: %s", dt)
	}
}

// Schema builds the Arrow schema for a table, keeping column order
func (c *TypeConverter) Schema(table *model.Table) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(table.Columns))

	for _, col := range table.Columns {
		dt, err := c.MapColumnType(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		fields = append(fields, arrow.Field{
			Name:     col.Name,
			Type:     dt,
			Nullable: true,
		})
	}

	return arrow.NewSchema(fields, nil), nil
}
