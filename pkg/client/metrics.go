package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for request client operations.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elt_http_requests_total",
		Help: "Total HTTP requests by method and status",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "elt_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	httpRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elt_http_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	httpRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "elt_http_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	httpRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elt_http_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	jsonDecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "elt_http_decode_errors_total",
		Help: "Total number of response bodies that failed JSON decoding",
	})
)
