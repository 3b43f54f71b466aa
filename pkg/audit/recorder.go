// Package audit records the value coercions performed while cleaning datasets.
package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// Recorder receives the cleaning operations of one dataset
type Recorder interface {
	Record(ctx context.Context, operations []model.CleaningOperation) error
	Close() error
}

// reasonKind returns the reason up to its detail, e.g. "cannot_convert_to_float"
func reasonKind(reason string) string {
	if i := strings.Index(reason, ":"); i >= 0 {
		return reason[:i]
	}
	return reason
}

// toNullableString renders a value for a TEXT column, nil stays NULL
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprintf("%v", v)
	return &s
}
