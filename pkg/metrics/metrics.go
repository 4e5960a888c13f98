package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|invalid|denied|error).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// LifecycleTransitions counts token redemptions and issues by purpose and outcome.
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_lifecycle_transitions_total",
			Help: "Account lifecycle transitions by purpose and result",
		},
		[]string{"purpose", "result"},
	)

	// Notifications counts outbound notifications by template and result (sent|failed|skipped).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_notifications_total",
			Help: "Outbound notifications by template and result",
		},
		[]string{"template", "result"},
	)

	// MaintenanceSweeps counts rows touched by background cleanup jobs.
	MaintenanceSweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_maintenance_rows_total",
			Help: "Rows cleared by maintenance jobs",
		},
		[]string{"job"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskflow_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// APIInFlight tracks requests currently being served.
	APIInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskflow_api_in_flight_requests",
			Help: "HTTP requests currently being served",
		},
	)
)
