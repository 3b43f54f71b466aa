package ingest

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "retail_ingress"

// WriteTextfile exports the run in the Prometheus text format, for the
// node_exporter textfile collector. succeeded is recorded as run_success.
func (m *RunMetrics) WriteTextfile(path string, succeeded bool) error {
	reg := prometheus.NewRegistry()

	rowsRead := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "rows_read",
		Help:      "Rows read from the source file of a dataset.",
	}, []string{"dataset"})
	rowsWritten := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "rows_written",
		Help:      "Rows written to the Parquet output of a dataset.",
	}, []string{"dataset"})
	cleaningOps := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cleaning_operations",
		Help:      "Values coerced to missing or defaulted while cleaning a dataset.",
	}, []string{"dataset"})
	skipped := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "dataset_skipped",
		Help:      "1 when the source file of a dataset was not found.",
	}, []string{"dataset"})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run.",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_success",
		Help:      "1 when the last run completed without error.",
	})
	finished := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_finished_timestamp_seconds",
		Help:      "Unix time the last run finished.",
	})

	reg.MustRegister(rowsRead, rowsWritten, cleaningOps, skipped, duration, success, finished)

	for _, r := range m.Datasets {
		if r.Skipped {
			skipped.WithLabelValues(r.Name).Set(1)
			continue
		}
		skipped.WithLabelValues(r.Name).Set(0)
		rowsRead.WithLabelValues(r.Name).Set(float64(r.RowsRead))
		rowsWritten.WithLabelValues(r.Name).Set(float64(r.RowsWritten))
		cleaningOps.WithLabelValues(r.Name).Set(float64(r.CleaningOperations))
	}

	duration.Set(m.Duration().Seconds())
	if succeeded {
		success.Set(1)
	}
	if !m.EndTime.IsZero() {
		finished.Set(float64(m.EndTime.Unix()))
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
