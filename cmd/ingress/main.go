package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/retail-ingress/pkg/config"
	"github.com/David-Botos/retail-ingress/pkg/ingest"
	"github.com/David-Botos/retail-ingress/pkg/logging"
)

var (
	datasetsDir     string
	processedDir    string
	compression     string
	metricsTextfile string
	verifyOutput    bool
)

var rootCmd = &cobra.Command{
	Use:   "ingress",
	Short: "Normalize the retail CSV exports into Parquet files",
	Long: `ingress reads the retail CSV exports found in the datasets directory,
cleans each one and writes <processed>/<dataset>.parquet. Missing exports are
skipped; any other failure stops the run with a non-zero exit status.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid configuration: %v\n", err)
			return err
		}
		if err := applyFlags(cmd, cfg); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid flags: %v\n", err)
			return err
		}

		logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to create logger: %v\n", err)
			return err
		}
		defer logger.Sync()

		if err := run(cmd.Context(), cfg, logger); err != nil {
			logger.Error("Ingest failed",
				zap.String("category", ingest.CategoryOf(err).String()),
				zap.Error(err))
			return err
		}
		return nil
	},
}

// applyFlags overrides environment configuration with flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("datasets-dir") {
		cfg.DatasetsDir = datasetsDir
	}
	if flags.Changed("processed-dir") {
		cfg.ProcessedDir = processedDir
	}
	if flags.Changed("compression") {
		cfg.ParquetCompression = strings.ToLower(compression)
	}
	if flags.Changed("metrics-textfile") {
		cfg.MetricsTextfile = metricsTextfile
	}
	if flags.Changed("verify") {
		cfg.VerifyOutput = verifyOutput
	}
	return cfg.Validate()
}

// bindFlags registers the command line overrides on cmd
func bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&datasetsDir, "datasets-dir", "d", "datasets", "Directory holding the source CSV exports (DATASETS_DIR)")
	cmd.Flags().StringVarP(&processedDir, "processed-dir", "o", "processed", "Directory receiving the Parquet files (PROCESSED_DIR)")
	cmd.Flags().StringVar(&compression, "compression", "snappy", "Parquet codec: snappy, zstd, gzip, brotli or none (PARQUET_COMPRESSION)")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus run metrics to this file (METRICS_TEXTFILE)")
	cmd.Flags().BoolVar(&verifyOutput, "verify", false, "Read every written file back and compare it (VERIFY_OUTPUT)")
}

func init() {
	bindFlags(rootCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
