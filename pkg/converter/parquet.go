package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/apache/arrow/go/v16/parquet"
	"github.com/apache/arrow/go/v16/parquet/file"
	"github.com/apache/arrow/go/v16/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

// ErrNoColumns is returned when saving a table without any column
var ErrNoColumns = errors.New("table has no columns")

// ParquetStore writes tables to Parquet files and reads them back
type ParquetStore struct {
	converter *TypeConverter
	logger    *zap.Logger
}

// NewParquetStore creates a store using the given converter
func NewParquetStore(converter *TypeConverter, logger *zap.Logger) (*ParquetStore, error) {
	if converter == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := converter.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid converter configuration: %w", err)
	}

	return &ParquetStore{
		converter: converter,
		logger:    logger,
	}, nil
}

// Save writes table to path, creating or truncating the file, and returns
// the number of rows written. Column order and types are preserved;
// timestamps are stored at the configured unit, truncating finer precision.
func (s *ParquetStore) Save(table *model.Table, path string, metadata map[string]string) (int64, error) {
	if len(table.Columns) == 0 {
		return 0, fmt.Errorf("failed to save %s: %w", path, ErrNoColumns)
	}

	s.logger.Info("Saving to parquet", zap.String("path", path))

	props, arrProps, err := s.converter.writerProperties()
	if err != nil {
		return 0, err
	}

	rec, err := s.converter.BuildRecord(table)
	if err != nil {
		return 0, fmt.Errorf("failed to build record for %s: %w", path, err)
	}
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	// The Parquet writer closes f on success; this covers the error paths.
	defer f.Close()

	fw, err := pqarrow.NewFileWriter(rec.Schema(), f, props, arrProps)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet writer for %s: %w", path, err)
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fw.AppendKeyValueMetadata(k, metadata[k]); err != nil {
			fw.Close()
			return 0, fmt.Errorf("failed to add metadata %s: %w", k, err)
		}
	}

	if err := fw.Write(rec); err != nil {
		fw.Close()
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}

	rows := rec.NumRows()
	s.logger.Info("Saved rows", zap.Int64("rows", rows), zap.String("path", path))
	return rows, nil
}

// Load reads a Parquet file written by Save back into a table
func (s *ParquetStore) Load(ctx context.Context, path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	mem := s.converter.mem
	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer tbl.Release()

	return s.converter.TableFromArrow(tbl)
}

// ReadMetadata returns the key-value metadata and row count of a Parquet file
func (s *ParquetStore) ReadMetadata(path string) (map[string]string, int64, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer rdr.Close()

	kv := rdr.MetaData().KeyValueMetadata()
	keys, values := kv.Keys(), kv.Values()
	metadata := make(map[string]string, len(keys))
	for i, k := range keys {
		metadata[k] = values[i]
	}

	return metadata, rdr.NumRows(), nil
}
