package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rules-radar/internal/domain/entity"
)

var fallbackTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "proxy_fallback_total",
		Help: "Number of proxy fallback routings by origin and target region",
	},
	[]string{"from_region", "to_region"},
)

func recordFallback(from, to entity.Region) {
	fallbackTotal.WithLabelValues(string(from), string(to)).Inc()
}
