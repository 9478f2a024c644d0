// Package observability exposes Prometheus metrics for the reconciliation
// engine: submission outcomes, retry counts, batch timing, and HTTP traffic.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Submission Metrics ─────────────────────────────────────────────────────

// SubmissionsTotal counts submitted rows by outcome (success, failed, skipped).
var SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nestegg",
	Subsystem: "submit",
	Name:      "rows_total",
	Help:      "Rows submitted to the backend, by outcome.",
}, []string{"outcome"})

// SubmissionRetries counts retry attempts after transient failures.
var SubmissionRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "nestegg",
	Subsystem: "submit",
	Name:      "retries_total",
	Help:      "Retry attempts made after transient submission failures.",
})

// BatchDuration tracks wall-clock time per submission batch.
var BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "nestegg",
	Subsystem: "submit",
	Name:      "batch_duration_seconds",
	Help:      "Wall-clock duration of submission batches.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
})

// InFlight tracks requests currently held open against the backend.
var InFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "nestegg",
	Subsystem: "submit",
	Name:      "in_flight",
	Help:      "Backend update requests currently in flight.",
})

// ─── Draft Metrics ──────────────────────────────────────────────────────────

// DraftCount tracks the number of pending draft edits.
var DraftCount = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "nestegg",
	Subsystem: "draft",
	Name:      "pending",
	Help:      "Pending draft edits not yet submitted.",
})

// PasteLines counts bulk-paste lines by result (applied, failed, skipped).
var PasteLines = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nestegg",
	Subsystem: "paste",
	Name:      "lines_total",
	Help:      "Bulk-paste lines processed, by result.",
}, []string{"result"})

// ─── HTTP Metrics ───────────────────────────────────────────────────────────

// HTTPRequests counts API requests by method, path pattern, and status class.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nestegg",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "API requests served, by method, route, and status class.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks API request latency by route.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "nestegg",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "API request latency, by route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// StatusClass buckets an HTTP status code into 2xx/3xx/4xx/5xx.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// ObserveRequest records one served API request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, StatusClass(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// TimeBatch returns a func that records the batch duration when called.
// Usage: defer observability.TimeBatch()().
func TimeBatch() func() {
	start := time.Now()
	return func() {
		BatchDuration.Observe(time.Since(start).Seconds())
	}
}

