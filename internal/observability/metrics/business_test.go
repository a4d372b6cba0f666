package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"rules-radar/internal/domain/entity"
)

func TestRecordPass(t *testing.T) {
	before := testutil.ToFloat64(PassRunsTotal.WithLabelValues("success"))
	RecordPass(true, 3*time.Second)
	after := testutil.ToFloat64(PassRunsTotal.WithLabelValues("success"))
	assert.Equal(t, before+1, after)

	beforeFail := testutil.ToFloat64(PassRunsTotal.WithLabelValues("failure"))
	RecordPass(false, time.Second)
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(PassRunsTotal.WithLabelValues("failure")))
}

func TestRecordSourcePoll(t *testing.T) {
	before := testutil.ToFloat64(SourcePollsTotal.WithLabelValues("ads", "EU", "changed"))
	RecordSourcePoll("ads", entity.RegionEU, "changed", 200*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(SourcePollsTotal.WithLabelValues("ads", "EU", "changed")))
}

func TestRecordItemRecorded(t *testing.T) {
	before := testutil.ToFloat64(ItemsRecordedTotal.WithLabelValues("MD"))
	RecordItemRecorded(entity.RegionMD)
	assert.Equal(t, before+1, testutil.ToFloat64(ItemsRecordedTotal.WithLabelValues("MD")))
}

func TestRecordSummarized(t *testing.T) {
	before := testutil.ToFloat64(SummariesTotal.WithLabelValues("failure"))
	RecordSummarized(false)
	assert.Equal(t, before+1, testutil.ToFloat64(SummariesTotal.WithLabelValues("failure")))
}

func TestUpdateCacheEntriesTotal(t *testing.T) {
	UpdateCacheEntriesTotal(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(CacheEntriesTotal))
}

func TestUpdateDBConnectionStats(t *testing.T) {
	UpdateDBConnectionStats(3, 7)
	assert.Equal(t, float64(3), testutil.ToFloat64(DBConnectionsActive))
	assert.Equal(t, float64(7), testutil.ToFloat64(DBConnectionsIdle))
}
