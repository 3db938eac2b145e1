// Package metrics holds the Prometheus collectors shared by the pipeline stages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModelCalls counts model service calls by provider and outcome
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_model_calls_total",
		Help: "Model service calls by provider and outcome",
	}, []string{"provider", "outcome"})

	// ModelTokens counts tokens reported by providers
	ModelTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_model_tokens_total",
		Help: "Tokens consumed by provider",
	}, []string{"provider"})

	// SearchCalls counts search backend calls by backend and outcome
	SearchCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_search_calls_total",
		Help: "Search backend calls by backend and outcome",
	}, []string{"backend", "outcome"})

	// Attempts counts attempts made under the retry policy, per operation
	Attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_retry_attempts_total",
		Help: "Attempts made by retried operations",
	}, []string{"operation", "outcome"})

	// StageDuration tracks pipeline stage latency
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "factcheck_stage_duration_seconds",
		Help:    "Pipeline stage duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"stage"})

	// Verdicts counts verdicts by rating
	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_verdicts_total",
		Help: "Verified facts by Truth-O-Meter rating",
	}, []string{"rating"})

	// CacheLookups counts source cache lookups by layer and result
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_cache_lookups_total",
		Help: "Source cache lookups by layer and result",
	}, []string{"layer", "result"})

	// HTTPRequests counts API requests by route and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_http_requests_total",
		Help: "API requests by route and status",
	}, []string{"route", "status"})

	// Runs counts pipeline invocations by outcome
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_runs_total",
		Help: "Pipeline invocations by outcome",
	}, []string{"outcome"})
)

// Outcome maps an error to a metric label
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
