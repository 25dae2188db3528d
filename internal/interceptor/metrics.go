package interceptor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks routing decisions, forward failures, and shadow comparison
// outcomes.
type Metrics struct {
	Decisions     *prometheus.CounterVec
	ForwardErrors *prometheus.CounterVec
	Comparisons   *prometheus.CounterVec
	ShadowLatency prometheus.Histogram
}

// NewMetrics creates and registers the interceptor metrics on reg. Passing
// nil registers nothing, which keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reqrouter_decisions_total",
			Help: "Routing decisions by mode.",
		}, []string{"mode"}),
		ForwardErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reqrouter_forward_errors_total",
			Help: "Failed forwarded calls by path.",
		}, []string{"path"}),
		Comparisons: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reqrouter_comparisons_total",
			Help: "Shadow comparison outcomes.",
		}, []string{"result"}),
		ShadowLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reqrouter_shadow_latency_seconds",
			Help:    "Latency of completed shadow requests.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
