package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Reset workflow metrics
	SessionResets   prometheus.Counter
	ResetFailures   *prometheus.CounterVec
	ResetLatency    prometheus.Histogram

	// Session lifecycle metrics
	SessionReviews   prometheus.Counter
	SessionsStarted  prometheus.Counter
	MessagesAppended *prometheus.CounterVec

	// Agent routing metrics
	RoutedAgent *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SessionResets: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resets_total",
			Help:      "Total number of successful intake session resets",
		}),
		ResetFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reset_failures_total",
			Help:      "Total number of failed intake session resets",
		}, []string{"kind"}),
		ResetLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_reset_duration_seconds",
			Help:      "Time spent executing the reset workflow",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		SessionReviews: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_reviews_total",
			Help:      "Total number of sessions marked reviewed",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of intake sessions created",
		}),
		MessagesAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_appended_total",
			Help:      "Total number of messages appended to intake sessions",
		}, []string{"role"}),
		RoutedAgent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routed_agent_total",
			Help:      "Distribution of agent roles chosen by the router",
		}, []string{"agent"}),
	}
}
