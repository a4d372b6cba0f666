package worker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the worker: config
// load/fallback tracking plus cron pass execution.
type WorkerMetrics struct {
	ConfigLoadTimestamp    prometheus.Gauge
	ConfigValidationErrors *prometheus.CounterVec
	ConfigFallbacksTotal   *prometheus.CounterVec
	ConfigFallbackActive   prometheus.Gauge

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobSourcesTotal         prometheus.Counter
	CronJobLastSuccessTimestamp prometheus.Gauge
}

var (
	workerMetricsOnce     sync.Once
	workerMetricsInstance *WorkerMetrics
)

// NewWorkerMetrics returns the process-wide metrics instance. promauto
// registers on creation, so this is a singleton.
func NewWorkerMetrics() *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetricsInstance = &WorkerMetrics{
			ConfigLoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "worker_config_load_timestamp",
				Help: "Unix timestamp of the last configuration load",
			}),
			ConfigValidationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "worker_config_validation_errors_total",
				Help: "Total configuration validation errors by field",
			}, []string{"field"}),
			ConfigFallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "worker_config_fallbacks_total",
				Help: "Total configuration fallbacks applied by field",
			}, []string{"field", "action"}),
			ConfigFallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "worker_config_fallback_active",
				Help: "1 if any configuration fallback is active, 0 otherwise",
			}),

			CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "worker_cron_job_runs_total",
				Help: "Total number of scheduled pass runs by status",
			}, []string{"status"}),
			CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "worker_cron_job_duration_seconds",
				Help:    "Duration of scheduled pass execution in seconds",
				Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
			}),
			CronJobSourcesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "worker_cron_job_sources_processed_total",
				Help: "Total number of sources processed across pass runs",
			}),
			CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "worker_cron_job_last_success_timestamp",
				Help: "Unix timestamp of the last successful pass",
			}),
		}
	})
	return workerMetricsInstance
}

// RecordValidationError counts a configuration validation failure.
func (m *WorkerMetrics) RecordValidationError(field string) {
	m.ConfigValidationErrors.WithLabelValues(field).Inc()
}

// RecordFallback counts a configuration fallback.
func (m *WorkerMetrics) RecordFallback(field, action string) {
	m.ConfigFallbacksTotal.WithLabelValues(field, action).Inc()
}

// SetFallbackActive flags whether any fallback is currently in effect.
func (m *WorkerMetrics) SetFallbackActive(active bool) {
	if active {
		m.ConfigFallbackActive.Set(1)
	} else {
		m.ConfigFallbackActive.Set(0)
	}
}

// RecordLoadTimestamp marks the configuration load time.
func (m *WorkerMetrics) RecordLoadTimestamp() {
	m.ConfigLoadTimestamp.SetToCurrentTime()
}

// RecordJobRun counts one pass run. Status is "success" or "failure".
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one pass duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordSourcesProcessed adds the number of sources polled in a pass.
func (m *WorkerMetrics) RecordSourcesProcessed(count int) {
	m.CronJobSourcesTotal.Add(float64(count))
}

// RecordLastSuccess marks the completion time of a successful pass.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
