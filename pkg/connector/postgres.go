// pkg/connector/postgres.go
package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/config"
)

const defaultDDLTimeout = 30 * time.Second

// PostgresConnector holds the connection to the coercion audit database
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresConnector opens and verifies a PostgreSQL connection.
// cfg.Driver selects the pgx or lib/pq database/sql driver.
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, errors.New("postgres configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	logger = logger.Named("postgres-connector")

	logger.Info("Connecting to audit database",
		zap.String("driver", cfg.Driver),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open(cfg.Driver, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}
	configurePool(db.DB, cfg)

	if err := ping(ctx, db.DB, pingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if cfg.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds())
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	c := newPostgresConnector(db, cfg, logger)
	logger.Debug("Connection pool", zap.Object("pool", poolStats(db.DB)))
	return c, nil
}

func newPostgresConnector(db *sqlx.DB, cfg *config.PostgresConfig, logger *zap.Logger) *PostgresConnector {
	return &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sqlx.DB {
	return c.db
}

// Validate checks the server version and makes sure the audit schema exists
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	if err := c.ensureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", c.cfg.Schema, err)
	}

	c.logger.Info("Audit database ready",
		zap.String("schema", c.cfg.Schema),
		zap.String("table", c.cfg.Table))
	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection", zap.Object("pool", poolStats(c.db.DB)))
	return c.db.Close()
}

// ensureSchema creates the audit schema if it doesn't exist, bounded by the
// statement timeout.
func (c *PostgresConnector) ensureSchema(ctx context.Context) error {
	timeout := c.cfg.StatementTimeout
	if timeout <= 0 {
		timeout = defaultDDLTimeout
	}
	ddlCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.db.ExecContext(ddlCtx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(c.cfg.Schema))
	return err
}
