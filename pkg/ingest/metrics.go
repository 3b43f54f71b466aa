package ingest

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// RunMetrics tracks metrics for one ingest run
type RunMetrics struct {
	RunID            string
	StartTime        time.Time
	EndTime          time.Time
	Datasets         []*DatasetResult
	Processed        int
	Skipped          int
	TotalRowsRead    int64
	TotalRowsWritten int64
	TotalCleaningOps int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(runID string) *RunMetrics {
	return &RunMetrics{
		RunID:     runID,
		StartTime: time.Now(),
		Datasets:  make([]*DatasetResult, 0),
	}
}

// RecordDataset records a processed or skipped dataset
func (m *RunMetrics) RecordDataset(result *DatasetResult) {
	m.Datasets = append(m.Datasets, result)

	if result.Skipped {
		m.Skipped++
		return
	}

	m.Processed++
	m.TotalRowsRead += result.RowsRead
	m.TotalRowsWritten += result.RowsWritten
	m.TotalCleaningOps += result.CleaningOperations
}

// Complete marks the end of the run
func (m *RunMetrics) Complete() {
	m.EndTime = time.Now()
}

// Duration returns the total duration of the run
func (m *RunMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// LogSummary logs one line per dataset followed by the run totals
func (m *RunMetrics) LogSummary(logger *zap.Logger) {
	for _, r := range m.Datasets {
		if r.Skipped {
			logger.Info("Dataset skipped",
				zap.String("dataset", r.Name),
				zap.String("path", r.Path))
			continue
		}
		logger.Info("Dataset written",
			zap.String("dataset", r.Name),
			zap.String("output", r.Output),
			zap.Int64("rowsRead", r.RowsRead),
			zap.Int64("rowsWritten", r.RowsWritten),
			zap.Int("cleaningOperations", r.CleaningOperations),
			zap.Duration("duration", r.Duration))
	}

	logger.Info("Run summary",
		zap.String("runID", m.RunID),
		zap.Int("processed", m.Processed),
		zap.Int("skipped", m.Skipped),
		zap.Int64("rowsRead", m.TotalRowsRead),
		zap.Int64("rowsWritten", m.TotalRowsWritten),
		zap.Int("cleaningOperations", m.TotalCleaningOps),
		zap.Duration("duration", m.Duration()))
}

// ToJSON serializes the run totals
func (m *RunMetrics) ToJSON() ([]byte, error) {
	datasets := make(map[string]int64, len(m.Datasets))
	skipped := make([]string, 0)
	for _, r := range m.Datasets {
		if r.Skipped {
			skipped = append(skipped, r.Name)
			continue
		}
		datasets[r.Name] = r.RowsWritten
	}

	return json.Marshal(struct {
		RunID            string           `json:"runID"`
		Duration         string           `json:"duration"`
		Processed        int              `json:"processed"`
		Skipped          []string         `json:"skipped"`
		TotalRowsWritten int64            `json:"totalRowsWritten"`
		TotalCleaningOps int              `json:"totalCleaningOps"`
		Datasets         map[string]int64 `json:"datasets"`
	}{
		RunID:            m.RunID,
		Duration:         m.Duration().String(),
		Processed:        m.Processed,
		Skipped:          skipped,
		TotalRowsWritten: m.TotalRowsWritten,
		TotalCleaningOps: m.TotalCleaningOps,
		Datasets:         datasets,
	})
}
