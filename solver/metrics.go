package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics of the solve loop, registered on the registry handed to NewMetrics
type Metrics struct {
	// StepDuration is the wall time of each time step
	StepDuration prometheus.Histogram
	// ResidualMax is the largest residual magnitude of the latest step
	ResidualMax prometheus.Gauge
	Steps       prometheus.Counter
	// NotPhysical counts runs stopped by a non-physical state
	NotPhysical prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dgflow",
			Name:      "step_duration_seconds",
			Help:      "Wall time of one time step in seconds",
			Buckets:   prometheus.ExponentialBuckets(1.e-5, 4, 12),
		}),
		ResidualMax: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "dgflow",
			Name:      "residual_max",
			Help:      "Largest residual magnitude over all states of the latest step",
		}),
		Steps: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dgflow",
			Name:      "steps_total",
			Help:      "Total time steps taken",
		}),
		NotPhysical: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dgflow",
			Name:      "not_physical_total",
			Help:      "Total steps stopped by a non-physical state",
		}),
	}
}
