// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/retail-ingress/pkg/config"
)

const pingTimeout = 5 * time.Second

// poolStats renders the pool counters of db as a zap object
func poolStats(db *sql.DB) zapcore.ObjectMarshalerFunc {
	return func(enc zapcore.ObjectEncoder) error {
		s := db.Stats()
		enc.AddInt("open", s.OpenConnections)
		enc.AddInt("in_use", s.InUse)
		enc.AddInt("idle", s.Idle)
		enc.AddInt("max_open", s.MaxOpenConnections)
		enc.AddInt64("wait_count", s.WaitCount)
		enc.AddDuration("wait_duration", s.WaitDuration)
		return nil
	}
}

// configurePool applies the audit database pool limits. Zero values keep
// the database/sql defaults.
func configurePool(db *sql.DB, cfg *config.PostgresConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// ping checks the server answers within timeout
func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping failed after %v: %w", timeout, err)
	}
	return nil
}
