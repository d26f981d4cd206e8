package server

import "github.com/prometheus/client_golang/prometheus"

var (
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_broker_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)
	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oauth_broker_rate_limited_total",
			Help: "Login initiations rejected by the per-client rate limit",
		},
	)
)

// MetricsCollectors returns collectors for the HTTP layer.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		requests,
		rateLimited,
	}
}
