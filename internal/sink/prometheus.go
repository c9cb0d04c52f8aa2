package sink

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statwatch/statwatch/internal/event"
)

// Prometheus Metrics Definition
var (
	statWindowValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statwatch_stat_window_value",
			Help: "Aggregate value for a stat in its last closed window.",
		},
		[]string{"stat", "aggregation"},
	)
	statWindowsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statwatch_stat_windows_closed_total",
			Help: "Total number of non-empty windows closed per stat.",
		},
		[]string{"stat"},
	)
)

// NewPrometheusHandler returns a handler exporting each closed window's
// aggregates as gauges labelled by stat and aggregation name.
func NewPrometheusHandler() event.Handler {
	return func(e event.Event) {
		statWindowsClosed.WithLabelValues(e.Message).Inc()

		prefix := e.Message + "."
		for key, val := range e.Metadata {
			agg := strings.TrimPrefix(key, prefix)

			var f float64
			switch v := val.(type) {
			case int64:
				f = float64(v)
			case float64:
				f = v
			default:
				continue
			}
			statWindowValue.WithLabelValues(e.Message, agg).Set(f)
		}
	}
}
