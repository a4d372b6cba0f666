// Package metrics provides centralized Prometheus metrics for the watcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Polling metrics track whole-pass and per-source behavior
var (
	// PassRunsTotal counts completed polling passes by outcome
	PassRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_pass_runs_total",
			Help: "Total number of polling passes",
		},
		[]string{"status"}, // status: success, failure
	)

	// PassDuration measures the wall time of one full polling pass
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poll_pass_duration_seconds",
			Help:    "Time taken to poll all configured sources",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// SourcePollsTotal counts per-source poll outcomes
	SourcePollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_polls_total",
			Help: "Total number of source polls by outcome",
		},
		[]string{"tag", "region", "result"}, // result: changed, unchanged, failed
	)

	// SourcePollDuration measures a single source fetch-and-store cycle
	SourcePollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_poll_duration_seconds",
			Help:    "Time taken to poll one source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"region"},
	)

	// ItemsRecordedTotal counts change items appended to the store
	ItemsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_items_recorded_total",
			Help: "Total number of change items recorded",
		},
		[]string{"region"},
	)

	// SummariesTotal counts summarization attempts by outcome
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summaries_total",
			Help: "Total number of summarization attempts",
		},
		[]string{"status"}, // status: success, failure
	)

	// SummaryBackfillsTotal counts deferred summaries filled in by a later pass
	SummaryBackfillsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_backfills_total",
			Help: "Total number of deferred summaries filled in",
		},
	)
)

// Store metrics track persistence state and query performance
var (
	// CacheEntriesTotal tracks the number of cache entries in the store
	CacheEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries_total",
			Help: "Number of cache entries in the store",
		},
	)

	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
