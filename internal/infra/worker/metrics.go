package worker

import (
	"pravo-monitor/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics exposes Prometheus metrics for the scheduled refresh job,
// plus the embedded worker_config_* series from ConfigMetrics.
//
// Refresh job series:
//   - worker_cron_job_runs_total{status}: runs by outcome (started/success/failure)
//   - worker_cron_job_duration_seconds: refresh duration histogram
//   - worker_cron_job_documents_added_total: new documents discovered across runs
//   - worker_cron_job_last_success_timestamp: Unix time of the last clean run
//
// Alerting on staleness is a query over last_success_timestamp; the process
// itself never ages out metrics.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts refresh runs by status label.
	CronJobRunsTotal *prometheus.CounterVec

	// CronJobDurationSeconds observes wall-clock duration of each refresh.
	// Buckets cover 1s to 30m; a full three-source crawl with pagination
	// normally lands in the 30s to 5m range.
	CronJobDurationSeconds prometheus.Histogram

	// CronJobDocumentsAddedTotal accumulates newly stored documents.
	CronJobDocumentsAddedTotal prometheus.Counter

	// CronJobLastSuccessTimestamp holds the Unix time of the last
	// successful refresh.
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics builds the worker metric set. promauto registers every
// series with the default registry at construction time.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by status (success/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		CronJobDocumentsAddedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_documents_added_total",
			Help: "Total number of documents added across all cron job runs",
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful cron job run",
		}),
	}
}

// MustRegister keeps the usual construct-then-register call shape at the
// call site. Registration already happened via promauto, so this is a no-op.
func (m *WorkerMetrics) MustRegister() {}

// RecordJobRun counts one refresh run with the given status label.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one refresh duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordDocumentsAdded adds the number of documents stored by one refresh.
func (m *WorkerMetrics) RecordDocumentsAdded(count int) {
	m.CronJobDocumentsAddedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the current time as the last successful refresh.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
