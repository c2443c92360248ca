// Package metrics provides Prometheus metrics for the report analysis API.
// It exports HTTP request metrics plus counters for the two external
// collaborators the pipeline depends on:
//   - http_request_total / http_request_duration_seconds / http_request_in_flight
//   - icd10_lookup_total: one increment per coding API query, by outcome
//   - icd10_resolution_total: one increment per resolved disease, by resolver step
//   - llm_request_total / llm_request_duration_seconds: by provider and status
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets currently tracked",
		},
	)

	ICD10LookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icd10_lookup_total",
			Help: "ICD-10 coding API queries by outcome",
		},
		[]string{"outcome"},
	)

	ICD10ResolutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "icd10_resolution_total",
			Help: "Resolved diseases by the resolver step that produced the code",
		},
		[]string{"source"},
	)

	LLMRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_request_total",
			Help: "Language model calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Language model call latency",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider"},
	)
)

// Lookup outcomes
const (
	OutcomeMatch     = "match"
	OutcomeNoMatch   = "no_match"
	OutcomeHTTPError = "http_error"
	OutcomeMalformed = "malformed"
	OutcomeTransport = "transport_error"
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ICD10LookupTotal)
	prometheus.MustRegister(ICD10ResolutionTotal)
	prometheus.MustRegister(LLMRequestTotal)
	prometheus.MustRegister(LLMRequestDuration)
}
