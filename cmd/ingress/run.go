package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/audit"
	"github.com/David-Botos/retail-ingress/pkg/cleaner"
	"github.com/David-Botos/retail-ingress/pkg/config"
	"github.com/David-Botos/retail-ingress/pkg/connector"
	"github.com/David-Botos/retail-ingress/pkg/converter"
	"github.com/David-Botos/retail-ingress/pkg/ingest"
)

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	dataCleaner, err := cleaner.NewDataCleaner(logger.Named("cleaner"))
	if err != nil {
		return err
	}

	convCfg := converter.DefaultConfig()
	convCfg.Compression = cfg.ParquetCompression
	store, err := converter.NewParquetStore(converter.NewTypeConverterWithConfig(logger.Named("converter"), convCfg), logger.Named("parquet"))
	if err != nil {
		return err
	}

	recorder, err := newRecorder(ctx, cfg, logger)
	if err != nil {
		return &ingest.DatasetError{Category: ingest.ErrorCategoryAuditFailure, Err: err}
	}
	defer recorder.Close()

	driver, err := ingest.NewDriver(
		ingest.DefaultRegistry(cfg.DatasetsDir, dataCleaner),
		cfg.ProcessedDir,
		store,
		recorder,
		logger.Named("ingest"),
	)
	if err != nil {
		return err
	}
	if cfg.VerifyOutput {
		driver.WithVerification()
	}

	metrics, runErr := driver.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile, runErr == nil); err != nil {
			logger.Warn("Failed to export run metrics", zap.Error(err))
		}
	}
	if summary, err := metrics.ToJSON(); err == nil {
		logger.Debug("Run metrics", zap.ByteString("metrics", summary))
	}

	return runErr
}

// newRecorder returns the PostgreSQL audit sink when configured, the log sink otherwise
func newRecorder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (audit.Recorder, error) {
	if cfg.Audit == nil {
		return audit.NewLogRecorder(logger), nil
	}

	conn, err := connector.NewPostgresConnector(ctx, cfg.Audit, logger)
	if err != nil {
		return nil, err
	}
	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	recorder, err := audit.NewPostgresRecorder(ctx, conn.DB(), cfg.Audit.Schema, cfg.Audit.Table, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return recorder, nil
}
