package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all notification subsystem metrics
type Metrics struct {
	// Bridge related metrics
	EventsReceived *prometheus.CounterVec
	OpenedDeduped  prometheus.Counter
	DisplayFailed  prometheus.Counter

	// Registration metrics
	Registrations  *prometheus.CounterVec
	TokenRefreshes prometheus.Counter

	// Badge metrics
	BadgeFetches   *prometheus.CounterVec
	BadgeCoalesced prometheus.Counter

	// Backend API metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec
}

// NewMetrics creates and registers all subsystem metrics against reg.
// A nil registerer falls back to the default prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EventsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_events_received_total",
			Help:      "Total number of push events received, by provider and kind",
		}, []string{"provider", "kind"}),
		OpenedDeduped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_opened_events_deduplicated_total",
			Help:      "Total number of notification-opened events dropped as duplicates",
		}),
		DisplayFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_display_failures_total",
			Help:      "Total number of local notification display failures",
		}),
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_device_registrations_total",
			Help:      "Total number of device registration attempts, by status",
		}, []string{"status"}),
		TokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_token_refreshes_total",
			Help:      "Total number of vendor token refresh events",
		}),
		BadgeFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_badge_fetches_total",
			Help:      "Total number of unread-count reconciliation fetches, by status",
		}, []string{"status"}),
		BadgeCoalesced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_badge_fetches_coalesced_total",
			Help:      "Total number of reconciliation fetches skipped by coalescing",
		}),
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_api_requests_total",
			Help:      "Total number of notification API requests, by endpoint and status",
		}, []string{"endpoint", "status"}),
		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "push_api_request_duration_seconds",
			Help:      "Duration of notification API requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"endpoint"}),
	}
}
