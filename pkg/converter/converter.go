// pkg/converter/converter.go
package converter

import (
	"fmt"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/memory"
	"go.uber.org/zap"
)

// TypeConverter handles mapping and conversion between tables and Arrow data
type TypeConverter struct {
	logger *zap.Logger
	mem    memory.Allocator
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Unit timestamps are stored with in the Parquet file
	TimestampUnit arrow.TimeUnit
	// Whether precision lost when coercing timestamps is allowed instead of an error
	AllowTruncatedTimestamps bool
	// Compression codec name: snappy, zstd, gzip, brotli or uncompressed
	Compression string
	// Whether dictionary encoding is enabled for all columns
	DictionaryEncoding bool
	// Maximum number of rows in a row group
	MaxRowGroupLength int64
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		TimestampUnit:            arrow.Microsecond,
		AllowTruncatedTimestamps: true,
		Compression:              "snappy",
		DictionaryEncoding:       true,
		MaxRowGroupLength:        64 * 1024,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	return &TypeConverter{
		logger: logger,
		mem:    memory.NewGoAllocator(),
		config: config,
	}
}

// Validate checks the configuration before any file is written
func (c TypeConverterConfig) Validate() error {
	if _, err := parseCompression(c.Compression); err != nil {
		return err
	}
	if c.MaxRowGroupLength <= 0 {
		return fmt.Errorf("max row group length must be positive, got %d", c.MaxRowGroupLength)
	}
	switch c.TimestampUnit {
	case arrow.Second, arrow.Millisecond, arrow.Microsecond, arrow.Nanosecond:
	default:
		return fmt.Errorf("unsupported timestamp unit %v", c.TimestampUnit)
	}
	return nil
}
