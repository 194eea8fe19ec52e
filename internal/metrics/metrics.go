// Package metrics holds the Prometheus collectors shared by the API, the
// functions and the background workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karya_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "method", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "karya_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	TaskOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karya_task_operations_total",
			Help: "Task operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	RemindersPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karya_reminders_total",
			Help: "Reminder messages by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)
	ScanMatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "karya_scan_matched_total",
			Help: "Tasks matched by the due-date scanner",
		},
	)
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, TaskOps, RemindersPublished, ScanMatched, RLRequests, RLBlocked)
}

// Outcome labels an operation result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
