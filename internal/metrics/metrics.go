// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchrec_http_requests_total",
			Help: "Total HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watchrec_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Inference
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchrec_predictions_total",
			Help: "Classifier invocations by outcome (ok, error)",
		},
		[]string{"outcome"},
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "watchrec_inference_duration_seconds",
			Help:    "Time spent encoding preferences and scoring brands",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	// UnseenCategories counts preference values that had no training column
	// and were zero-filled.
	UnseenCategories = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchrec_unseen_categories_total",
			Help: "Preference values with no matching training-time column",
		},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchrec_model_loaded",
			Help: "1 when model artifacts are loaded, 0 when serving without predictions",
		},
	)

	// Recommendations
	RecommendationsServed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "watchrec_recommendations_served",
			Help:    "Number of catalog watches shown per request",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchrec_catalog_entries",
			Help: "Catalog rows loaded at startup",
		},
	)

	// Feedback
	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchrec_feedback_total",
			Help: "Feedback submissions by satisfaction value",
		},
		[]string{"feedback"},
	)

	FeedbackErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchrec_feedback_errors_total",
			Help: "Feedback submissions that could not be persisted",
		},
	)

	// Stylist
	StylistRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchrec_stylist_requests_total",
			Help: "Stylist note generations by outcome (ok, error)",
		},
		[]string{"outcome"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
