package connector

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/retail-ingress/pkg/config"
)

func newMockConnector(t *testing.T, monitorPings bool) (*PostgresConnector, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(monitorPings))
	require.NoError(t, err)

	cfg := &config.PostgresConfig{Driver: "pgx", Database: "retail", Schema: "audit", Table: "cleaned_on_ingress"}
	return newPostgresConnector(sqlx.NewDb(mockDB, "pgx"), cfg, zaptest.NewLogger(t)), mock
}

func TestPostgresConnector_Validate(t *testing.T) {
	c, mock := newMockConnector(t, false)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT version()")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.2"))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "audit"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	require.NoError(t, c.Validate(context.Background()))
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConnector_ValidateSchemaFailure(t *testing.T) {
	c, mock := newMockConnector(t, false)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT version()")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.2"))
	mock.ExpectExec("CREATE SCHEMA").WillReturnError(errors.New("permission denied"))

	err := c.Validate(context.Background())
	assert.ErrorContains(t, err, "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	c, mock := newMockConnector(t, true)

	mock.ExpectPing()
	assert.NoError(t, ping(context.Background(), c.DB().DB, time.Second))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.ErrorContains(t, ping(context.Background(), c.DB().DB, time.Second), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurePool(t *testing.T) {
	c, _ := newMockConnector(t, false)

	configurePool(c.DB().DB, &config.PostgresConfig{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Minute})
	assert.Equal(t, 7, c.DB().Stats().MaxOpenConnections)

	configurePool(c.DB().DB, &config.PostgresConfig{})
	assert.Equal(t, 7, c.DB().Stats().MaxOpenConnections)
}

func TestNewPostgresConnector_RequiresConfig(t *testing.T) {
	_, err := NewPostgresConnector(context.Background(), nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}
