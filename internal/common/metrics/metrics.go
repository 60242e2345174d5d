// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendquery_api_requests_total",
			Help: "Total number of outbound requests against the spending API",
		},
		[]string{"endpoint", "status_class"},
	)

	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendquery_api_retries_total",
			Help: "Total number of retried outbound attempts",
		},
		[]string{"endpoint"},
	)

	RateLimiterWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spendquery_rate_limiter_wait_seconds",
			Help:    "Time spent waiting for rate-limit tokens",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"identifier"},
	)

	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendquery_tool_invocations_total",
			Help: "Total number of tool invocations by outcome",
		},
		[]string{"tool", "outcome"},
	)

	ToolDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "spendquery_tool_duration_seconds",
			Help: "Duration of tool invocations in seconds",
		},
		[]string{"tool"},
	)
)
