// Package observability provides Prometheus metrics and HTTP middleware
// for the mockauth pipeline and the sample API.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockauth_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mockauth_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// InFlightRequests tracks requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mockauth_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// AuthDecisionsTotal counts auth chain outcomes (yes, no, abstain).
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockauth_auth_decisions_total",
			Help: "Authentication decisions",
		},
		[]string{"decision"},
	)

	// ForbiddenTotal counts requests rejected for a missing authority.
	ForbiddenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mockauth_forbidden_total",
			Help: "Requests rejected for missing authority",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockauth_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)

	// MockDispatchesTotal counts simulated requests dispatched with a mock
	// identity attached, by identity kind.
	MockDispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockauth_mock_dispatches_total",
			Help: "Dispatches carrying a mock identity",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InFlightRequests,
		AuthDecisionsTotal,
		ForbiddenTotal,
		RateLimitRejectedTotal,
		MockDispatchesTotal,
	)
}
