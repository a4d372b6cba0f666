package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SummaryMetricsRecorder abstracts metrics recording so tests can inject a
// mock instead of the Prometheus registry.
type SummaryMetricsRecorder interface {
	// RecordLength records a generated summary's length in runes.
	RecordLength(length int)

	// RecordLimitExceeded counts summaries over the configured limit.
	RecordLimitExceeded()

	// RecordCompliance records whether a summary stayed within the limit.
	RecordCompliance(withinLimit bool)

	// RecordDuration records one API call's duration.
	RecordDuration(duration time.Duration)
}

// PrometheusSummaryMetrics is the production SummaryMetricsRecorder.
type PrometheusSummaryMetrics struct {
	lengthHistogram   prometheus.Histogram
	exceededCounter   prometheus.Counter
	complianceGauge   prometheus.Gauge
	durationHistogram prometheus.Histogram
}

var (
	prometheusMetricsInstance *PrometheusSummaryMetrics
	prometheusMetricsOnce     sync.Once
)

// NewPrometheusSummaryMetrics returns the process-wide recorder. Singleton
// so repeated construction in tests cannot double-register collectors.
func NewPrometheusSummaryMetrics() *PrometheusSummaryMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusSummaryMetrics{
			lengthHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "change_summary_length_characters",
				Help:    "Distribution of summary lengths in Unicode characters",
				Buckets: []float64{200, 500, 800, 1100, 1400, 1800, 2500, 3500},
			}),
			exceededCounter: promauto.NewCounter(prometheus.CounterOpts{
				Name: "change_summary_limit_exceeded_total",
				Help: "Total summaries exceeding the configured character limit",
			}),
			complianceGauge: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "change_summary_limit_compliance",
				Help: "Whether the last summary stayed within the character limit (0 or 1)",
			}),
			durationHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "change_summarization_duration_seconds",
				Help:    "Time taken to generate a summary via the LLM API",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}),
		}
	})
	return prometheusMetricsInstance
}

func (p *PrometheusSummaryMetrics) RecordLength(length int) {
	p.lengthHistogram.Observe(float64(length))
}

func (p *PrometheusSummaryMetrics) RecordLimitExceeded() {
	p.exceededCounter.Inc()
}

func (p *PrometheusSummaryMetrics) RecordCompliance(withinLimit bool) {
	if withinLimit {
		p.complianceGauge.Set(1.0)
	} else {
		p.complianceGauge.Set(0.0)
	}
}

func (p *PrometheusSummaryMetrics) RecordDuration(duration time.Duration) {
	p.durationHistogram.Observe(duration.Seconds())
}
