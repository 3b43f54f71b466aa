// pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

var validate = validator.New()

// Config represents the application configuration
type Config struct {
	// Input and output locations
	DatasetsDir  string `envconfig:"DATASETS_DIR" default:"datasets" validate:"required"`
	ProcessedDir string `envconfig:"PROCESSED_DIR" default:"processed" validate:"required"`

	// Output settings
	VerifyOutput       bool   `envconfig:"VERIFY_OUTPUT" default:"false"`
	ParquetCompression string `envconfig:"PARQUET_COMPRESSION" default:"snappy" validate:"oneof=snappy zstd gzip brotli none uncompressed"`

	// Prometheus textfile written after each run; empty disables it
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=json console"`

	// Coercion audit sink; nil when AUDIT_POSTGRES_HOST is unset
	Audit *PostgresConfig `ignored:"true"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	cfg.normalize()

	auditConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load audit database configuration: %w", err)
	}
	cfg.Audit = auditConfig

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.ParquetCompression = strings.ToLower(strings.TrimSpace(c.ParquetCompression))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// auditEnabled reports whether the audit database block is configured
func auditEnabled() bool {
	return os.Getenv("AUDIT_POSTGRES_HOST") != ""
}
