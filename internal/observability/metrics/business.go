package metrics

import (
	"time"

	"rules-radar/internal/domain/entity"
)

// RecordPass records one full polling pass.
func RecordPass(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	PassRunsTotal.WithLabelValues(status).Inc()
	PassDuration.Observe(duration.Seconds())
}

// RecordSourcePoll records the outcome of polling a single source.
// Result is the fetch status string: "changed", "unchanged" or "failed".
func RecordSourcePoll(tag string, region entity.Region, result string, duration time.Duration) {
	SourcePollsTotal.WithLabelValues(tag, string(region), result).Inc()
	SourcePollDuration.WithLabelValues(string(region)).Observe(duration.Seconds())
}

// RecordItemRecorded counts a change item appended to the store.
func RecordItemRecorded(region entity.Region) {
	ItemsRecordedTotal.WithLabelValues(string(region)).Inc()
}

// RecordSummarized records the result of one summarization attempt.
func RecordSummarized(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	SummariesTotal.WithLabelValues(status).Inc()
}

// RecordSummaryBackfill counts a deferred summary filled in by a later pass.
func RecordSummaryBackfill() {
	SummaryBackfillsTotal.Inc()
}

// UpdateCacheEntriesTotal updates the cache entry count gauge.
func UpdateCacheEntriesTotal(count int) {
	CacheEntriesTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g. "get_cache_entry").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
