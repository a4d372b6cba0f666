package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rules-radar/internal/domain/entity"
)

// All package metrics register against the default registry via promauto,
// so they must show up in a default gather with their label sets intact.
func TestMetricsRegisteredWithDefaultGatherer(t *testing.T) {
	RecordSourcePoll("gather-probe", entity.RegionMD, "unchanged", 50*time.Millisecond)
	RecordPass(true, time.Second)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}

	require.Contains(t, byName, "source_polls_total")
	require.Contains(t, byName, "poll_pass_runs_total")
	require.Contains(t, byName, "poll_pass_duration_seconds")

	var found bool
	for _, metric := range byName["source_polls_total"].GetMetric() {
		labels := labelMap(metric)
		if labels["tag"] == "gather-probe" && labels["region"] == "MD" && labels["result"] == "unchanged" {
			found = true
			assert.GreaterOrEqual(t, metric.GetCounter().GetValue(), float64(1))
		}
	}
	assert.True(t, found, "source_polls_total missing the recorded label set")

	assert.Equal(t, dto.MetricType_HISTOGRAM, byName["poll_pass_duration_seconds"].GetType())
}

func labelMap(m *dto.Metric) map[string]string {
	labels := make(map[string]string, len(m.GetLabel()))
	for _, pair := range m.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	return labels
}
