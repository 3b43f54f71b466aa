// pkg/audit/log.go
package audit

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// LogRecorder writes cleaning operations to the application log
type LogRecorder struct {
	logger *zap.Logger
}

// NewLogRecorder creates a recorder logging through logger
func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.Named("audit")}
}

type summaryKey struct {
	dataset   string
	column    string
	operation string
	reason    string
}

// Record logs one Info line per dataset, column, operation and reason kind,
// and each operation at Debug.
func (r *LogRecorder) Record(_ context.Context, operations []model.CleaningOperation) error {
	counts := make(map[summaryKey]int)
	for _, op := range operations {
		counts[summaryKey{op.Dataset, op.ColumnName, op.CleaningOperation, reasonKind(op.CleaningReason)}]++

		if ce := r.logger.Check(zap.DebugLevel, "Cleaning operation"); ce != nil {
			ce.Write(
				zap.String("dataset", op.Dataset),
				zap.String("column", op.ColumnName),
				zap.String("row", op.RowIdentifier),
				zap.Any("original", op.OriginalValue),
				zap.Any("new", op.NewValue),
				zap.String("reason", op.CleaningReason))
		}
	}

	keys := make([]summaryKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].column != keys[j].column {
			return keys[i].column < keys[j].column
		}
		if keys[i].operation != keys[j].operation {
			return keys[i].operation < keys[j].operation
		}
		return keys[i].reason < keys[j].reason
	})

	for _, k := range keys {
		r.logger.Info("Values cleaned",
			zap.String("dataset", k.dataset),
			zap.String("column", k.column),
			zap.String("operation", k.operation),
			zap.String("reason", k.reason),
			zap.Int("count", counts[k]))
	}
	return nil
}

// Close is a no-op
func (r *LogRecorder) Close() error {
	return nil
}
