// pkg/audit/postgres.go
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/model"
)

const defaultBatchSize = 500

// auditRow is the database shape of a CleaningOperation
type auditRow struct {
	RunID             string    `db:"run_id"`
	Dataset           string    `db:"dataset"`
	ColumnName        string    `db:"column_name"`
	OriginalValue     *string   `db:"original_value"`
	NewValue          *string   `db:"new_value"`
	RowIdentifier     string    `db:"row_identifier"`
	CleaningOperation string    `db:"cleaning_operation"`
	CleaningReason    string    `db:"cleaning_reason"`
	CleanedAt         time.Time `db:"cleaned_at"`
}

// PostgresRecorder stores cleaning operations in a PostgreSQL table
type PostgresRecorder struct {
	db        *sqlx.DB
	logger    *zap.Logger
	table     string
	batchSize int
	timeout   time.Duration
}

// NewPostgresRecorder creates a recorder writing to schema.table and makes
// sure the table exists.
func NewPostgresRecorder(ctx context.Context, db *sqlx.DB, schema, table string, logger *zap.Logger) (*PostgresRecorder, error) {
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &PostgresRecorder{
		db:        db,
		logger:    logger.Named("audit"),
		table:     pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table),
		batchSize: defaultBatchSize,
		timeout:   30 * time.Second,
	}

	if err := r.setupTable(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// setupTable ensures the tracking table exists
func (r *PostgresRecorder) setupTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS ` + r.table + ` (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT,
			row_identifier TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured audit table exists", zap.String("table", r.table))
	return nil
}

// Record inserts operations inside one transaction, in batches
func (r *PostgresRecorder) Record(ctx context.Context, operations []model.CleaningOperation) error {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertSQL := `INSERT INTO ` + r.table + `
		(run_id, dataset, column_name, original_value, new_value,
		 row_identifier, cleaning_operation, cleaning_reason, cleaned_at)
		VALUES (:run_id, :dataset, :column_name, :original_value, :new_value,
		 :row_identifier, :cleaning_operation, :cleaning_reason, :cleaned_at)`

	for start := 0; start < len(operations); start += r.batchSize {
		end := start + r.batchSize
		if end > len(operations) {
			end = len(operations)
		}

		rows := make([]auditRow, 0, end-start)
		for _, op := range operations[start:end] {
			rows = append(rows, auditRow{
				RunID:             op.RunID,
				Dataset:           op.Dataset,
				ColumnName:        op.ColumnName,
				OriginalValue:     toNullableString(op.OriginalValue),
				NewValue:          toNullableString(op.NewValue),
				RowIdentifier:     op.RowIdentifier,
				CleaningOperation: op.CleaningOperation,
				CleaningReason:    op.CleaningReason,
				CleanedAt:         op.CleanedAt,
			})
		}

		if _, err := tx.NamedExecContext(ctx, insertSQL, rows); err != nil {
			return fmt.Errorf("failed to insert cleaning operations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// Close releases the database connection
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
