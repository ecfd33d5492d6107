package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overlap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ComparisonCount counts document comparisons
	ComparisonCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "overlap_comparisons_total",
			Help: "Total number of document comparisons",
		},
	)

	// ComparisonDuration measures the time spent comparing two documents
	ComparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "overlap_comparison_duration_seconds",
			Help:    "Document comparison duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	// SimilarityScore tracks the distribution of similarity scores
	SimilarityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "overlap_similarity_score",
			Help:    "Distribution of similarity scores",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	// BatchJobCount counts finished batch jobs by outcome
	BatchJobCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlap_batch_jobs_total",
			Help: "Total number of batch comparison jobs",
		},
		[]string{"status"},
	)

	registerOnce sync.Once
)

// InitPrometheus registers all collectors with the default registry.
// Safe to call more than once.
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCount)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ComparisonCount)
		prometheus.MustRegister(ComparisonDuration)
		prometheus.MustRegister(SimilarityScore)
		prometheus.MustRegister(BatchJobCount)
	})
}

// ObserveComparison records one finished comparison
func ObserveComparison(score float64, elapsed time.Duration) {
	ComparisonCount.Inc()
	ComparisonDuration.Observe(elapsed.Seconds())
	SimilarityScore.Observe(score)
}

// ObserveRequest records one finished HTTP request
func ObserveRequest(method, route, status string, elapsed time.Duration) {
	RequestCount.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// MetricsHandler returns Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
