// Package metrics registers process-wide Prometheus metrics. Module-specific
// metrics live next to their modules (internal/approval/metrics).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the shared HTTP-level metrics.
type Metrics struct {
	NotificationsAppended prometheus.Counter
	FeedProjections       prometheus.Counter
}

// New creates and registers the shared metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		NotificationsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrifund_notifications_appended_total",
			Help: "Total number of notifications appended to the store",
		}),
		FeedProjections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrifund_feed_projections_total",
			Help: "Total number of role-scoped feed projections computed",
		}),
	}
}

// IncNotificationsAppended increments the appended-notification counter.
func (m *Metrics) IncNotificationsAppended() {
	if m != nil {
		m.NotificationsAppended.Inc()
	}
}

// IncFeedProjections increments the feed projection counter.
func (m *Metrics) IncFeedProjections() {
	if m != nil {
		m.FeedProjections.Inc()
	}
}
