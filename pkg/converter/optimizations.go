// pkg/converter/optimizations.go
package converter

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v16/parquet"
	"github.com/apache/arrow/go/v16/parquet/compress"
	"github.com/apache/arrow/go/v16/parquet/pqarrow"
	"go.uber.org/zap"
)

const createdBy = "retail-ingress"

// parseCompression maps a codec name to its Parquet compression
func parseCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unknown compression codec: %s", name)
	}
}

// writerProperties returns the Parquet and Arrow writer properties derived
// from the converter configuration.
func (c *TypeConverter) writerProperties() (*parquet.WriterProperties, pqarrow.ArrowWriterProperties, error) {
	codec, err := parseCompression(c.config.Compression)
	if err != nil {
		return nil, pqarrow.ArrowWriterProperties{}, err
	}

	props := parquet.NewWriterProperties(
		parquet.WithAllocator(c.mem),
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(c.config.DictionaryEncoding),
		parquet.WithMaxRowGroupLength(c.config.MaxRowGroupLength),
		parquet.WithCreatedBy(createdBy),
	)

	arrProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(c.mem),
		pqarrow.WithCoerceTimestamps(c.config.TimestampUnit),
		pqarrow.WithTruncatedTimestamps(c.config.AllowTruncatedTimestamps),
	)

	c.logger.Debug("Parquet writer properties",
		zap.String("compression", c.config.Compression),
		zap.Bool("dictionary", c.config.DictionaryEncoding),
		zap.Int64("maxRowGroupLength", c.config.MaxRowGroupLength),
		zap.String("timestampUnit", c.config.TimestampUnit.String()),
		zap.Bool("truncatedTimestamps", c.config.AllowTruncatedTimestamps))

	return props, arrProps, nil
}
