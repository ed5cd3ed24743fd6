// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlink_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Links
	LinksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_links_created_total",
			Help: "Total number of short links created",
		},
	)

	Redirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Resolutions of short links by outcome",
		},
		[]string{"outcome"}, // "found", "invalid", "not_found", "expired", "error"
	)

	// Background click recording
	BackgroundTaskFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_background_task_failures_total",
			Help: "Failed background click tasks",
		},
		[]string{"task"}, // "increment", "click_log", "notify"
	)

	BackgroundTasksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_background_tasks_dropped_total",
			Help: "Background tasks rejected because shutdown had started",
		},
	)

	BackgroundTasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortlink_background_tasks_in_flight",
			Help: "Background tasks currently running",
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_notifications_total",
			Help: "Click notifications by result",
		},
		[]string{"result"}, // "sent", "skipped", "failed"
	)

	ClickLogsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_click_logs_purged_total",
			Help: "Click log entries removed by the retention janitor",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRedirect counts one resolution outcome.
func RecordRedirect(outcome string) {
	Redirects.WithLabelValues(outcome).Inc()
}

// RecordTaskFailure counts one failed background task.
func RecordTaskFailure(task string) {
	BackgroundTaskFailures.WithLabelValues(task).Inc()
}

// RecordNotification counts one notifier outcome.
func RecordNotification(result string) {
	Notifications.WithLabelValues(result).Inc()
}
