// Package metrics registers the approval engine's Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds approval workflow metrics. A nil *Metrics is a no-op so
// tests can skip registration.
type Metrics struct {
	Decisions        *prometheus.CounterVec
	Conflicts        prometheus.Counter
	ResponsesEmitted prometheus.Counter
	DecisionDuration prometheus.Histogram
}

// New creates and registers the approval metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agrifund_approvals_total",
			Help: "Total approval decisions resolved, by decision",
		}, []string{"decision"}),
		Conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrifund_approval_conflicts_total",
			Help: "Total decisions aborted by the single-winner constraint",
		}),
		ResponsesEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrifund_approval_responses_total",
			Help: "Total response notifications emitted back to applicants",
		}),
		DecisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agrifund_approval_duration_seconds",
			Help:    "Latency of resolving one approval decision",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncDecision counts one resolved decision.
func (m *Metrics) IncDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

// IncConflict counts one single-winner abort.
func (m *Metrics) IncConflict() {
	if m != nil {
		m.Conflicts.Inc()
	}
}

// IncResponseEmitted counts one emitted response notification.
func (m *Metrics) IncResponseEmitted() {
	if m != nil {
		m.ResponsesEmitted.Inc()
	}
}

// ObserveDecisionDuration records the engine latency for one decision.
func (m *Metrics) ObserveDecisionDuration(d time.Duration) {
	if m != nil {
		m.DecisionDuration.Observe(d.Seconds())
	}
}
