package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EventsApplied    prometheus.Counter
	PropagationDepth prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		EventsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creditnet_credit_events_applied_total",
			Help: "Total number of credit events applied",
		}),
		PropagationDepth: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditnet_reward_propagation_depth",
			Help:    "Number of ancestors reached per reward propagation pass",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}),
	}
}
