// Package metrics provides Prometheus instrumentation for the suncare service.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "suncare"

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status class.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SensorReadingsTotal counts readings accepted into the feed by source.
	SensorReadingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_readings_total",
			Help:      "Sensor readings published to the feed by source.",
		},
		[]string{"source"},
	)

	// RiskRecalculationsTotal counts per-user final risk writes by result.
	RiskRecalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_recalculations_total",
			Help:      "Per-user risk recalculations persisted by the monitor, by result.",
		},
		[]string{"result"},
	)

	// TrackedProfiles reports the size of the monitor tracking table.
	TrackedProfiles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_tracked_profiles",
			Help:      "Profiles currently tracked by the risk monitor.",
		},
	)

	// MonitorState is 0 stopped, 1 loading, 2 listening.
	MonitorState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_state",
			Help:      "Risk monitor state (0 stopped, 1 loading, 2 listening).",
		},
	)

	// NotificationsTotal counts fired notifications by kind.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications fired by the notification gate, by kind.",
		},
		[]string{"kind"},
	)

	// NotificationFailuresTotal counts best-effort deliveries that failed.
	NotificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_delivery_failures_total",
			Help:      "Notification deliveries that failed.",
		},
	)

	// AdviceTotal counts advice responses by source (llm, cache, fallback).
	AdviceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advice_total",
			Help:      "Advice responses served by source.",
		},
		[]string{"source"},
	)

	// ActiveSessions tracks connected websocket notification sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Connected websocket notification sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SensorReadingsTotal,
		RiskRecalculationsTotal,
		TrackedProfiles,
		MonitorState,
		NotificationsTotal,
		NotificationFailuresTotal,
		AdviceTotal,
		ActiveSessions,
	)
}

// Middleware records request counts and latency per route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(c.Request.Method, path))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, statusBucket(c.Writer.Status())).Inc()
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
