// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/model"
	"github.com/David-Botos/retail-ingress/pkg/reader"
)

// ErrMissingColumn is returned when a column required for a coercion is absent
var ErrMissingColumn = errors.New("required column missing")

// DataCleaner loads the retail CSV exports and normalizes their columns.
//
// Each exported cleaning method reads one file and returns a new table; the
// DataCleaner holds no per-dataset state.
type DataCleaner struct {
	logger *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &DataCleaner{logger: logger}, nil
}

// load reads a source file verbatim
func (c *DataCleaner) load(path string) (*model.Table, error) {
	c.logger.Info("Loading source file", zap.String("file", filepath.Base(path)))

	table, err := reader.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Source file read",
		zap.String("file", filepath.Base(path)),
		zap.Int("rows", table.NumRows()),
		zap.Strings("columns", table.ColumnNames()))
	return table, nil
}

// applyConversions derives every target column from the current source
// columns, then sets them on the table in order.
func (c *DataCleaner) applyConversions(t *model.Table, conversions []conversion) error {
	derived := make([]*model.Column, 0, len(conversions))

	for _, conv := range conversions {
		col, operations, err := coerceColumn(t, conv)
		if err != nil {
			return err
		}
		if len(operations) > 0 {
			c.logger.Debug("Values coerced to missing",
				zap.String("column", conv.Target),
				zap.String("source", conv.Source),
				zap.Int("count", len(operations)))
		}
		derived = append(derived, col)
		t.Operations = append(t.Operations, operations...)
	}

	for _, col := range derived {
		if err := t.SetColumn(col); err != nil {
			return fmt.Errorf("failed to set column %s: %w", col.Name, err)
		}
	}
	return nil
}
