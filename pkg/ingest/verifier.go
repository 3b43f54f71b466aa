package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// ErrVerificationFailed is returned when a written file does not match its table
var ErrVerificationFailed = errors.New("output verification failed")

// TableLoader reads a written output file back
type TableLoader interface {
	Load(ctx context.Context, path string) (*model.Table, error)
}

// RowDiscrepancy represents a value that differs after the round trip
type RowDiscrepancy struct {
	Row         int
	ColumnName  string
	Expected    interface{}
	Actual      interface{}
	Discrepancy string
}

// VerificationReport contains the results of an output verification
type VerificationReport struct {
	Dataset             string
	Path                string
	VerificationTime    time.Time
	ExpectedRowCount    int
	ActualRowCount      int
	RowCountMatches     bool
	StructureMatches    bool
	MissingColumns      []string
	UnexpectedColumns   []string
	SampleSize          int
	SampleDiscrepancies []RowDiscrepancy
	Duration            time.Duration
}

// Passed reports whether every check succeeded
func (r *VerificationReport) Passed() bool {
	return r.RowCountMatches && r.StructureMatches && len(r.SampleDiscrepancies) == 0
}

// Verifier reads written files back and compares them to the cleaned tables
type Verifier struct {
	loader    TableLoader
	logger    *zap.Logger
	precision time.Duration
}

// NewVerifier creates a new verifier.
// Timestamps are compared at the precision they are stored with.
func NewVerifier(loader TableLoader, logger *zap.Logger) *Verifier {
	return &Verifier{
		loader:    loader,
		logger:    logger,
		precision: time.Microsecond,
	}
}

// Verify compares the file at path with expected. A mismatch is reported as
// ErrVerificationFailed together with the report.
func (v *Verifier) Verify(ctx context.Context, dataset, path string, expected *model.Table) (*VerificationReport, error) {
	start := time.Now()
	v.logger.Info("Verifying output",
		zap.String("dataset", dataset),
		zap.String("path", path))

	actual, err := v.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read back %s: %w", path, err)
	}

	report := &VerificationReport{
		Dataset:          dataset,
		Path:             path,
		VerificationTime: start,
		ExpectedRowCount: expected.NumRows(),
		ActualRowCount:   actual.NumRows(),
	}
	report.RowCountMatches = report.ExpectedRowCount == report.ActualRowCount
	report.MissingColumns, report.UnexpectedColumns = diffColumns(expected.ColumnNames(), actual.ColumnNames())
	report.StructureMatches = sameOrder(expected.ColumnNames(), actual.ColumnNames())

	if report.RowCountMatches && report.StructureMatches {
		report.SampleSize = calculateSampleSize(int64(expected.NumRows()))
		report.SampleDiscrepancies = v.compareRows(expected, actual, report.SampleSize)
	}
	report.Duration = time.Since(start)

	if !report.Passed() {
		v.logger.Warn("Output verification failed",
			zap.String("dataset", dataset),
			zap.Int("expectedRows", report.ExpectedRowCount),
			zap.Int("actualRows", report.ActualRowCount),
			zap.Strings("missingColumns", report.MissingColumns),
			zap.Strings("unexpectedColumns", report.UnexpectedColumns),
			zap.Int("discrepancies", len(report.SampleDiscrepancies)))
		return report, fmt.Errorf("%w: %s", ErrVerificationFailed, path)
	}

	v.logger.Info("Output verification successful",
		zap.String("dataset", dataset),
		zap.Int("rows", report.ActualRowCount),
		zap.Int("sampleSize", report.SampleSize),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// calculateSampleSize determines how many leading rows are compared value by value
func calculateSampleSize(rowCount int64) int {
	switch {
	case rowCount <= 0:
		return 0
	case rowCount < 100:
		return int(rowCount)
	case rowCount < 10000:
		return 100
	case rowCount < 100000:
		return 1000
	default:
		return 2000
	}
}

func diffColumns(expected, actual []string) (missing, unexpected []string) {
	seen := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		seen[name] = struct{}{}
	}
	for _, name := range expected {
		if _, ok := seen[name]; !ok {
			missing = append(missing, name)
		}
		delete(seen, name)
	}
	for _, name := range actual {
		if _, ok := seen[name]; ok {
			unexpected = append(unexpected, name)
		}
	}
	return missing, unexpected
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (v *Verifier) compareRows(expected, actual *model.Table, sampleSize int) []RowDiscrepancy {
	discrepancies := make([]RowDiscrepancy, 0)

	for i, col := range expected.Columns {
		got := actual.Columns[i]
		for row := 0; row < sampleSize; row++ {
			if !v.valuesEqual(col.Values[row], got.Values[row]) {
				discrepancies = append(discrepancies, RowDiscrepancy{
					Row:         row,
					ColumnName:  col.Name,
					Expected:    col.Values[row],
					Actual:      got.Values[row],
					Discrepancy: "Value mismatch",
				})
			}
		}
	}

	return discrepancies
}

func (v *Verifier) valuesEqual(val1, val2 interface{}) bool {
	if val1 == nil || val2 == nil {
		return val1 == nil && val2 == nil
	}

	switch v1 := val1.(type) {
	case string:
		v2, ok := val2.(string)
		return ok && v1 == v2
	case int64:
		v2, ok := val2.(int64)
		return ok && v1 == v2
	case float64:
		v2, ok := val2.(float64)
		return ok && (v1 == v2 || math.IsNaN(v1) && math.IsNaN(v2))
	case bool:
		v2, ok := val2.(bool)
		return ok && v1 == v2
	case time.Time:
		v2, ok := val2.(time.Time)
		return ok && v1.Truncate(v.precision).Equal(v2)
	default:
		return fmt.Sprintf("%v", val1) == fmt.Sprintf("%v", val2)
	}
}
