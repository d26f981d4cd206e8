package broker

import "github.com/prometheus/client_golang/prometheus"

var (
	initiations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_broker_initiations_total",
			Help: "Login flows started",
		},
		[]string{"provider", "pkce"},
	)
	initiationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_broker_initiation_failures_total",
			Help: "Login flows rejected before the provider redirect",
		},
		[]string{"reason"},
	)
	callbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_broker_callbacks_total",
			Help: "Callbacks handled by outcome",
		},
		[]string{"provider", "outcome"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauth_broker_exchange_duration_seconds",
			Help:    "Token endpoint round trip time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// MetricsCollectors returns collectors for the broker service.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		initiations,
		initiationFailures,
		callbacks,
		exchangeDuration,
	}
}
