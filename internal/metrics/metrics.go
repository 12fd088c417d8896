// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centace_notifications_created_total",
			Help: "Notifications written to the store",
		},
		[]string{"type"},
	)

	EmailDispatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centace_email_dispatch_total",
			Help: "Email dispatch outcomes",
		},
		[]string{"outcome"}, // sent, suppressed, no_recipient, failed
	)

	EmailBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "centace_email_breaker_state",
			Help: "SMTP circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	LiveSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "centace_live_sessions_active",
			Help: "Open live notification sessions",
		},
	)

	FeedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centace_feed_events_total",
			Help: "Change feed events by kind and result",
		},
		[]string{"kind", "result"}, // published, dropped, failed
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "centace_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

const (
	OutcomeSent        = "sent"
	OutcomeSuppressed  = "suppressed"
	OutcomeNoRecipient = "no_recipient"
	OutcomeFailed      = "failed"
)

// BreakerStateValue maps a breaker state name to the gauge value.
func BreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
