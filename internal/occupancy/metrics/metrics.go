package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the counter core.
type Metrics struct {
	CurrentCount  *prometheus.GaugeVec
	Updates       *prometheus.CounterVec
	Clamped       prometheus.Counter
	OverCapacity  prometheus.Counter
	ApplyDuration prometheus.Histogram
}

// New creates and registers all counter core metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		CurrentCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "urec_occupancy_current_count",
			Help: "Current occupancy count per area",
		}, []string{"area_id"}),
		Updates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urec_occupancy_updates_total",
			Help: "Total occupancy mutations by area and action",
		}, []string{"area_id", "action"}),
		Clamped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urec_occupancy_clamped_total",
			Help: "Total mutations floored at zero",
		}),
		OverCapacity: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urec_occupancy_over_capacity_total",
			Help: "Total committed counts observed above the area's max capacity",
		}),
		ApplyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "urec_occupancy_apply_duration_seconds",
			Help:    "Latency of occupancy mutations",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
	}
}

// ObserveMutation records one committed mutation.
func (m *Metrics) ObserveMutation(areaID, action string, newCount int, clamped, overCapacity bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CurrentCount.WithLabelValues(areaID).Set(float64(newCount))
	m.Updates.WithLabelValues(areaID, action).Inc()
	if clamped {
		m.Clamped.Inc()
	}
	if overCapacity {
		m.OverCapacity.Inc()
	}
	m.ApplyDuration.Observe(elapsed.Seconds())
}
