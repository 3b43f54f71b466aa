// pkg/config/database.go
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// PostgresConfig holds the connection parameters of the coercion audit
// database, read from AUDIT_POSTGRES_* variables.
type PostgresConfig struct {
	// Registered database/sql driver
	Driver string `envconfig:"AUDIT_POSTGRES_DRIVER" default:"pgx" validate:"oneof=pgx postgres"`

	Host     string `envconfig:"AUDIT_POSTGRES_HOST" validate:"required"`
	Port     int    `envconfig:"AUDIT_POSTGRES_PORT" default:"5432" validate:"min=1,max=65535"`
	User     string `envconfig:"AUDIT_POSTGRES_USER" required:"true" validate:"required"`
	Password string `envconfig:"AUDIT_POSTGRES_PASSWORD"`
	Database string `envconfig:"AUDIT_POSTGRES_DB" required:"true" validate:"required"`
	SSLMode  string `envconfig:"AUDIT_POSTGRES_SSLMODE" default:"disable"`

	// Schema and table receiving audit rows
	Schema string `envconfig:"AUDIT_POSTGRES_SCHEMA" default:"public" validate:"required"`
	Table  string `envconfig:"AUDIT_POSTGRES_TABLE" default:"cleaned_on_ingress" validate:"required"`

	// Connection pool settings
	MaxOpenConns    int           `envconfig:"AUDIT_POSTGRES_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"AUDIT_POSTGRES_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"AUDIT_POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"AUDIT_POSTGRES_CONN_MAX_IDLE_TIME" default:"10m"`

	// Statement timeout
	StatementTimeout time.Duration `envconfig:"AUDIT_POSTGRES_STATEMENT_TIMEOUT" default:"60s"`
}

// LoadPostgresConfig loads the audit database configuration from environment
// variables. It returns nil without error when AUDIT_POSTGRES_HOST is unset.
func LoadPostgresConfig() (*PostgresConfig, error) {
	if !auditEnabled() {
		return nil, nil
	}

	var cfg PostgresConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the audit database settings
func (c *PostgresConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("audit database config validation failed: %w", err)
	}
	return nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
