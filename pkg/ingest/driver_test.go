package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/David-Botos/retail-ingress/pkg/cleaner"
	"github.com/David-Botos/retail-ingress/pkg/converter"
	"github.com/David-Botos/retail-ingress/pkg/model"
)

const (
	inventoryCSV = "SKU Code,Design No.,Stock,Category,Size,Color\n" +
		"AN201-RED-L,AN201,5,AN : LEGGINGS,L,Red\n" +
		"AN201-RED-M,AN201,abc,KURTA,M,Red\n"
	expensesCSV = "Index,Expance,Amount\n" +
		"1,Large Bag,380\n" +
		"2,Printing,NA\n"
)

type captureRecorder struct {
	operations []model.CleaningOperation
	calls      int
	err        error
}

func (r *captureRecorder) Record(_ context.Context, operations []model.CleaningOperation) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.operations = append(r.operations, operations...)
	return nil
}

func (r *captureRecorder) Close() error { return nil }

// truncatingStore drops the last row of every file it reads back
type truncatingStore struct {
	TableStore
}

func (s truncatingStore) Load(ctx context.Context, path string) (*model.Table, error) {
	t, err := s.TableStore.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	n := t.NumRows()
	t.FilterRows(func(row int) bool { return row < n-1 })
	return t, nil
}

// failingStore rejects every save
type failingStore struct {
	TableStore
}

func (failingStore) Save(*model.Table, string, map[string]string) (int64, error) {
	return 0, errors.New("disk full")
}

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func newStore(t *testing.T, logger *zap.Logger) *converter.ParquetStore {
	t.Helper()
	store, err := converter.NewParquetStore(converter.NewTypeConverter(logger), logger)
	require.NoError(t, err)
	return store
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func defaultRegistry(t *testing.T, dir string, logger *zap.Logger) Registry {
	t.Helper()
	c, err := cleaner.NewDataCleaner(logger)
	require.NoError(t, err)
	return DefaultRegistry(dir, c)
}

func datasetResult(m *RunMetrics, name string) *DatasetResult {
	for _, r := range m.Datasets {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_SkipsMissingFiles(t *testing.T) {
	logger, logs := newObservedLogger()
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "processed", "retail")
	writeFile(t, in, InventoryFile, inventoryCSV)
	writeFile(t, in, ExpensesFile, expensesCSV)

	store := newStore(t, logger)
	recorder := &captureRecorder{}
	driver, err := NewDriver(defaultRegistry(t, in, logger), out, store, recorder, logger)
	require.NoError(t, err)

	metrics, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.Processed)
	assert.Equal(t, 5, metrics.Skipped)
	assert.Equal(t, []string{"expenses.parquet", "inventory.parquet"}, outputFiles(t, out))

	notFound := logs.FilterMessage("File not found").All()
	require.Len(t, notFound, 5)
	assert.Equal(t, "amazon_sales", notFound[0].ContextMap()["dataset"])
	assert.Equal(t, zap.WarnLevel, notFound[0].Level)
	assert.Equal(t, 1, logs.FilterMessage("Data loading completed successfully").Len())

	inventory, err := store.Load(context.Background(), filepath.Join(out, "inventory.parquet"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"LEGGINGS", "KURTA"}, inventory.Column("category").Values)
	assert.Equal(t, []interface{}{int64(5), int64(0)}, inventory.Column("stock").Values)
	assert.False(t, inventory.HasColumn("Stock"))

	metadata, rows, err := store.ReadMetadata(filepath.Join(out, "inventory.parquet"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	assert.Equal(t, "inventory", metadata[MetadataDataset])
	assert.Equal(t, metrics.RunID, metadata[MetadataRunID])
	assert.Equal(t, "2", metadata[MetadataSourceRows])
	assert.Equal(t, "1", metadata[MetadataCleaningOp])

	require.Len(t, recorder.operations, 1)
	op := recorder.operations[0]
	assert.Equal(t, "inventory", op.Dataset)
	assert.Equal(t, metrics.RunID, op.RunID)
	assert.Equal(t, "stock", op.ColumnName)
	assert.Equal(t, model.OperationDefaulted, op.CleaningOperation)
	assert.False(t, op.CleanedAt.IsZero())
	assert.Equal(t, 2, recorder.calls)
}

func TestRun_NothingPresent(t *testing.T) {
	logger, logs := newObservedLogger()
	out := filepath.Join(t.TempDir(), "processed")

	driver, err := NewDriver(defaultRegistry(t, t.TempDir(), logger), out, newStore(t, logger), &captureRecorder{}, logger)
	require.NoError(t, err)

	metrics, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, metrics.Skipped)
	assert.Empty(t, outputFiles(t, out))
	assert.Equal(t, 7, logs.FilterMessage("File not found").Len())
}

func TestRun_IsIdempotent(t *testing.T) {
	logger, _ := newObservedLogger()
	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, in, ExpensesFile, expensesCSV)

	driver, err := NewDriver(defaultRegistry(t, in, logger), out, newStore(t, logger), &captureRecorder{}, logger)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		metrics, err := driver.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), metrics.TotalRowsWritten)
	}
	assert.Equal(t, []string{"expenses.parquet"}, outputFiles(t, out))
}

func TestRun_AbortsOnFatalError(t *testing.T) {
	logger, logs := newObservedLogger()
	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, in, AmazonSalesFile, "Order ID,Amount\n405-1,10.5\n")
	writeFile(t, in, ExpensesFile, expensesCSV)

	driver, err := NewDriver(defaultRegistry(t, in, logger), out, newStore(t, logger), &captureRecorder{}, logger)
	require.NoError(t, err)

	_, err = driver.Run(context.Background())
	require.Error(t, err)

	var dsErr *DatasetError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ErrorCategoryReadFailure, dsErr.Category)
	assert.Equal(t, "amazon_sales", dsErr.Dataset)
	assert.ErrorIs(t, err, cleaner.ErrMissingColumn)

	assert.Empty(t, outputFiles(t, out), "later datasets must not be written")
	assert.Equal(t, 0, logs.FilterMessage("Data loading completed successfully").Len())
	assert.Equal(t, 1, logs.FilterMessage("Aborting run").Len())
}

func TestRun_StopsAtFirstFailureInRegistryOrder(t *testing.T) {
	logger, _ := newObservedLogger()
	in := t.TempDir()
	out := t.TempDir()

	var called []string
	load := func(name string, fail bool) LoadFunc {
		return func(string) (*model.Table, error) {
			called = append(called, name)
			if fail {
				return nil, errors.New("broken export")
			}
			return &model.Table{
				Columns:    []*model.Column{{Name: "id", Type: model.TypeInt, Values: []interface{}{int64(1)}}},
				SourceRows: 1,
			}, nil
		}
	}

	registry := Registry{
		{Name: "first", Path: filepath.Join(in, "first.csv"), Load: load("first", false)},
		{Name: "second", Path: filepath.Join(in, "second.csv"), Load: load("second", true)},
		{Name: "third", Path: filepath.Join(in, "third.csv"), Load: load("third", false)},
	}
	for _, ds := range registry {
		writeFile(t, in, filepath.Base(ds.Path), "id\n1\n")
	}

	driver, err := NewDriver(registry, out, newStore(t, logger), &captureRecorder{}, logger)
	require.NoError(t, err)

	metrics, err := driver.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrorCategoryReadFailure, CategoryOf(err))
	assert.Equal(t, []string{"first", "second"}, called)
	assert.Equal(t, []string{"first.parquet"}, outputFiles(t, out))
	assert.Equal(t, 1, metrics.Processed)
}

func TestRun_AuditFailureIsFatal(t *testing.T) {
	logger, _ := newObservedLogger()
	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, in, InventoryFile, inventoryCSV)

	recorder := &captureRecorder{err: errors.New("connection refused")}
	driver, err := NewDriver(defaultRegistry(t, in, logger), out, newStore(t, logger), recorder, logger)
	require.NoError(t, err)

	_, err = driver.Run(context.Background())
	assert.Equal(t, ErrorCategoryAuditFailure, CategoryOf(err))
	assert.Equal(t, []string{"inventory.parquet"}, outputFiles(t, out))
}

func TestRun_WriteFailureRecordsNoOperations(t *testing.T) {
	logger, _ := newObservedLogger()
	in := t.TempDir()
	writeFile(t, in, InventoryFile, inventoryCSV)

	recorder := &captureRecorder{}
	store := failingStore{newStore(t, logger)}
	driver, err := NewDriver(defaultRegistry(t, in, logger), t.TempDir(), store, recorder, logger)
	require.NoError(t, err)

	_, err = driver.Run(context.Background())
	assert.Equal(t, ErrorCategoryWriteFailure, CategoryOf(err))
	assert.Zero(t, recorder.calls)
	assert.Empty(t, recorder.operations)
}

func TestRun_Verification(t *testing.T) {
	logger, _ := newObservedLogger()
	in := t.TempDir()
	writeFile(t, in, InventoryFile, inventoryCSV)

	t.Run("matching output", func(t *testing.T) {
		driver, err := NewDriver(defaultRegistry(t, in, logger), t.TempDir(), newStore(t, logger), &captureRecorder{}, logger)
		require.NoError(t, err)

		metrics, err := driver.WithVerification().Run(context.Background())
		require.NoError(t, err)

		result := datasetResult(metrics, "inventory")
		require.NotNil(t, result)
		require.NotNil(t, result.Verification)
		assert.True(t, result.Verification.Passed())
		assert.Equal(t, 2, result.Verification.SampleSize)
	})

	t.Run("NaN spelling in a float column", func(t *testing.T) {
		nanIn := t.TempDir()
		writeFile(t, nanIn, AmazonSalesFile, "Order ID,Date,Qty,Amount,B2B\n"+
			"405-1,04-30-22,1,NAN,False\n"+
			"405-2,04-29-22,2,10.5,True\n")

		out := t.TempDir()
		driver, err := NewDriver(defaultRegistry(t, nanIn, logger), out, newStore(t, logger), &captureRecorder{}, logger)
		require.NoError(t, err)

		metrics, err := driver.WithVerification().Run(context.Background())
		require.NoError(t, err)
		assert.True(t, datasetResult(metrics, "amazon_sales").Verification.Passed())

		loaded, err := newStore(t, logger).Load(context.Background(), filepath.Join(out, "amazon_sales.parquet"))
		require.NoError(t, err)
		assert.Equal(t, []interface{}{nil, 10.5}, loaded.Column("amount").Values)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		store := truncatingStore{newStore(t, logger)}
		driver, err := NewDriver(defaultRegistry(t, in, logger), t.TempDir(), store, &captureRecorder{}, logger)
		require.NoError(t, err)

		_, err = driver.WithVerification().Run(context.Background())
		assert.Equal(t, ErrorCategoryWriteFailure, CategoryOf(err))
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})
}

func TestNewDriver_Validation(t *testing.T) {
	logger, _ := newObservedLogger()
	store := newStore(t, logger)

	_, err := NewDriver(nil, "out", nil, &captureRecorder{}, logger)
	assert.Error(t, err)
	_, err = NewDriver(nil, "out", store, nil, logger)
	assert.Error(t, err)
	_, err = NewDriver(nil, "", store, &captureRecorder{}, logger)
	assert.Error(t, err)
	_, err = NewDriver(nil, "out", store, &captureRecorder{}, nil)
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	logger, _ := newObservedLogger()
	registry := defaultRegistry(t, "datasets", logger)

	assert.Equal(t, []string{
		"amazon_sales", "international_sales", "inventory",
		"pricing_may2022", "pricing_march2021", "expenses", "warehouse_costs",
	}, registry.Names())
	assert.Equal(t, filepath.Join("datasets", "P  L March 2021.csv"), registry[4].Path)
	assert.Equal(t, filepath.Join("processed", "inventory.parquet"), registry[2].OutputPath("processed"))
	for _, ds := range registry {
		assert.NotNil(t, ds.Load, ds.Name)
	}
}
