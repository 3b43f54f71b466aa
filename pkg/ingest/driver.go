package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/audit"
	"github.com/David-Botos/retail-ingress/pkg/model"
)

// Parquet key-value metadata written with every output file
const (
	MetadataDataset    = "ingest.dataset"
	MetadataRunID      = "ingest.run_id"
	MetadataSourceRows = "ingest.source_rows"
	MetadataCleaningOp = "ingest.cleaning_operations"
)

// TableStore persists cleaned tables
type TableStore interface {
	TableLoader
	Save(table *model.Table, path string, metadata map[string]string) (int64, error)
}

// Driver runs every dataset of a registry once, in order
type Driver struct {
	registry  Registry
	outputDir string
	store     TableStore
	recorder  audit.Recorder
	verifier  *Verifier
	logger    *zap.Logger
	newRunID  func() string
	now       func() time.Time
}

// NewDriver creates a driver writing to outputDir
func NewDriver(
	registry Registry,
	outputDir string,
	store TableStore,
	recorder audit.Recorder,
	logger *zap.Logger,
) (*Driver, error) {
	if store == nil {
		return nil, errors.New("table store cannot be nil")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if outputDir == "" {
		return nil, errors.New("output directory is required")
	}

	return &Driver{
		registry:  registry,
		outputDir: outputDir,
		store:     store,
		recorder:  recorder,
		logger:    logger,
		newRunID:  func() string { return uuid.New().String() },
		now:       time.Now,
	}, nil
}

// WithVerification reads every written file back and compares it with the
// cleaned table before moving on.
func (d *Driver) WithVerification() *Driver {
	d.verifier = NewVerifier(d.store, d.logger)
	return d
}

// Run processes the registry. Missing source files are skipped with a
// warning; any other failure stops the run and is returned as a *DatasetError.
func (d *Driver) Run(ctx context.Context) (*RunMetrics, error) {
	metrics := NewRunMetrics(d.newRunID())
	d.logger.Info("Starting ingest run",
		zap.String("runID", metrics.RunID),
		zap.Strings("datasets", d.registry.Names()),
		zap.String("outputDir", d.outputDir))

	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return metrics, &DatasetError{
			Category: ErrorCategoryWriteFailure,
			Path:     d.outputDir,
			Err:      fmt.Errorf("failed to create output directory: %w", err),
		}
	}

	for _, ds := range d.registry {
		result, err := d.processDataset(ctx, metrics.RunID, ds)
		if err != nil {
			var dsErr *DatasetError
			if !errors.As(err, &dsErr) {
				dsErr = newDatasetError(ErrorCategoryReadFailure, ds, err)
			}

			switch ActionFor(dsErr.Category) {
			case ActionSkipDataset:
				d.logger.Warn("File not found",
					zap.String("dataset", ds.Name),
					zap.String("path", ds.Path))
				result.Skipped = true
				result.Complete()
				metrics.RecordDataset(result)
				continue
			default:
				d.logger.Error("Aborting run",
					zap.String("dataset", ds.Name),
					zap.String("category", dsErr.Category.String()),
					zap.Error(dsErr.Err))
				metrics.Complete()
				return metrics, dsErr
			}
		}

		result.Complete()
		metrics.RecordDataset(result)
	}

	metrics.Complete()
	metrics.LogSummary(d.logger)
	d.logger.Info("Data loading completed successfully",
		zap.String("runID", metrics.RunID),
		zap.Int("processed", metrics.Processed),
		zap.Int("skipped", metrics.Skipped))
	return metrics, nil
}

// processDataset loads, writes, optionally verifies and then audits one
// dataset. Operations are recorded only for output that was written.
func (d *Driver) processDataset(ctx context.Context, runID string, ds Dataset) (*DatasetResult, error) {
	result := NewDatasetResult(ds)

	if _, err := os.Stat(ds.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, newDatasetError(ErrorCategoryMissingFile, ds, err)
		}
		return result, newDatasetError(ErrorCategoryReadFailure, ds, err)
	}

	d.logger.Info("Processing dataset",
		zap.String("dataset", ds.Name),
		zap.String("path", ds.Path))

	table, err := ds.Load(ds.Path)
	if err != nil {
		return result, newDatasetError(ErrorCategoryReadFailure, ds, err)
	}
	table.Name = ds.Name
	result.RowsRead = int64(table.SourceRows)

	operations := d.stampOperations(runID, ds.Name, table.Operations)
	result.CleaningOperations = len(operations)

	output := ds.OutputPath(d.outputDir)
	metadata := map[string]string{
		MetadataDataset:    ds.Name,
		MetadataRunID:      runID,
		MetadataSourceRows: strconv.Itoa(table.SourceRows),
		MetadataCleaningOp: strconv.Itoa(len(operations)),
	}

	rows, err := d.store.Save(table, output, metadata)
	if err != nil {
		return result, newDatasetError(ErrorCategoryWriteFailure, ds, err)
	}
	result.Output = output
	result.RowsWritten = rows

	if d.verifier != nil {
		report, err := d.verifier.Verify(ctx, ds.Name, output, table)
		result.Verification = report
		if err != nil {
			return result, newDatasetError(ErrorCategoryWriteFailure, ds, err)
		}
	}

	if err := d.recorder.Record(ctx, operations); err != nil {
		return result, newDatasetError(ErrorCategoryAuditFailure, ds, err)
	}

	return result, nil
}

// stampOperations attaches the run and dataset to each cleaning operation
func (d *Driver) stampOperations(runID, dataset string, operations []model.CleaningOperation) []model.CleaningOperation {
	cleanedAt := d.now().UTC()
	stamped := make([]model.CleaningOperation, len(operations))
	for i, op := range operations {
		op.RunID = runID
		op.Dataset = dataset
		if op.CleanedAt.IsZero() {
			op.CleanedAt = cleanedAt
		}
		stamped[i] = op
	}
	return stamped
}
