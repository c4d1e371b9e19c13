// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of calls to the language model",
		},
		[]string{"operation", "status"}, // status: ok, error, open
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Duration of calls to the language model in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"operation"},
	)

	EmbeddingJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_jobs_total",
			Help: "Embedding jobs by outcome",
		},
		[]string{"status"}, // done, failed, dropped
	)

	ModerationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Moderation decisions by action and stage",
		},
		[]string{"action", "stage"},
	)

	FeedStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_strategy_total",
			Help: "Home feed requests by strategy",
		},
		[]string{"strategy"}, // personalized, fallback
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAIRequest records one call to the language model
func RecordAIRequest(operation, status string, duration time.Duration) {
	AIRequestsTotal.WithLabelValues(operation, status).Inc()
	AIRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordEmbeddingJob(status string) {
	EmbeddingJobsTotal.WithLabelValues(status).Inc()
}

func RecordModeration(action, stage string) {
	ModerationDecisionsTotal.WithLabelValues(action, stage).Inc()
}

func RecordFeedStrategy(strategy string) {
	FeedStrategyTotal.WithLabelValues(strategy).Inc()
}
