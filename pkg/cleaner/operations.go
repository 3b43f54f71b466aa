// pkg/cleaner/operations.go
package cleaner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// dateLayout matches export dates such as "04-30-22" and "4-3-22"
const dateLayout = "1-2-06"

var errEmpty = errors.New("empty string")

// coerceFunc converts the text of one present cell to the target type
type coerceFunc func(s string) (interface{}, error)

// conversion derives column Target from column Source
type conversion struct {
	Source string
	Target string
	Type   model.ColumnType
	Coerce coerceFunc
	Reason string
}

// coerceColumn applies conv to every value of the source column.
// Missing values stay missing; values that fail to convert become missing
// and are reported as cleaning operations.
func coerceColumn(t *model.Table, conv conversion) (*model.Column, []model.CleaningOperation, error) {
	source := t.Column(conv.Source)
	if source == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingColumn, conv.Source)
	}

	target := model.NewColumn(conv.Target, conv.Type, len(source.Values))
	var operations []model.CleaningOperation

	for row, value := range source.Values {
		if value == nil {
			target.Values = append(target.Values, nil)
			continue
		}

		original := cellText(value)
		converted, err := conv.Coerce(original)
		if err != nil {
			target.Values = append(target.Values, nil)
			operations = append(operations, model.CleaningOperation{
				ColumnName:        conv.Target,
				OriginalValue:     original,
				NewValue:          nil,
				RowIdentifier:     strconv.Itoa(row),
				CleaningOperation: model.OperationCoercionFailed,
				CleaningReason:    fmt.Sprintf("%s: %v", conv.Reason, err),
			})
			continue
		}
		target.Values = append(target.Values, converted)
	}

	return target, operations, nil
}

func floatValue(s string) (interface{}, error) {
	return parseFloat(s)
}

func intValue(s string) (interface{}, error) {
	return parseInt(s)
}

func boolValue(s string) (interface{}, error) {
	return parseBool(s)
}

func dateValue(s string) (interface{}, error) {
	return parseDate(s)
}

// cellText returns the text form of a present cell
func cellText(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// parseInt reads an int64. Integral floats such as "3.0" are accepted;
// fractional values are not.
func parseInt(s string) (int64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, errEmpty
	}
	if i, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return integralFloat(f)
}

func integralFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("fractional value %v", f)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(f), nil
}

// parseTruncatedInt reads a number and drops its fraction
func parseTruncatedInt(s string) (int64, error) {
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return integralFloat(math.Trunc(f))
}

func parseFloat(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, errEmpty
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("not a number: %q", cleaned)
	}
	return f, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("cannot parse %q as boolean", s)
	}
}

// parseDate reads a month-day-year export date in UTC
func parseDate(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, errEmpty
	}
	t, err := time.Parse(dateLayout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date from %q", cleaned)
	}
	return t, nil
}
