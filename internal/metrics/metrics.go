// Package metrics exposes Prometheus metrics for the relay service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the relay service.
type Metrics struct {
	// Session metrics
	ActiveSessions  *prometheus.GaugeVec
	SessionsStarted *prometheus.CounterVec
	SessionsClosed  *prometheus.CounterVec
	SessionDuration *prometheus.HistogramVec
	ConnectFailures *prometheus.CounterVec

	// Frame metrics
	FramesForwarded *prometheus.CounterVec
	DecodeErrors    *prometheus.CounterVec

	// Store metrics
	StoreAppends      prometheus.Counter
	StoreAppendErrors prometheus.Counter

	// HTTP API metrics
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "relay_active_sessions",
			Help: "Current number of active relay sessions",
		}, []string{"provider"}),
		SessionsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_sessions_started_total",
			Help: "Total number of relay sessions started",
		}, []string{"provider"}),
		SessionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_sessions_closed_total",
			Help: "Total number of relay sessions closed",
		}, []string{"provider"}),
		SessionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_session_duration_seconds",
			Help:    "Duration of relay sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}, []string{"provider"}),
		ConnectFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_upstream_connect_failures_total",
			Help: "Total number of failed upstream connection attempts",
		}, []string{"provider"}),

		FramesForwarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_frames_forwarded_total",
			Help: "Total number of frames forwarded",
		}, []string{"provider", "direction"}),
		DecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_decode_errors_total",
			Help: "Total number of malformed frames dropped",
		}, []string{"provider"}),

		StoreAppends: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_store_appends_total",
			Help: "Total number of transcript records appended",
		}),
		StoreAppendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_store_append_errors_total",
			Help: "Total number of failed transcript appends",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
	}
}

// RecordSessionStart increments the session counters for a provider.
func (m *Metrics) RecordSessionStart(provider string) {
	m.SessionsStarted.WithLabelValues(provider).Inc()
	m.ActiveSessions.WithLabelValues(provider).Inc()
}

// RecordSessionEnd decrements the active gauge and records the duration.
func (m *Metrics) RecordSessionEnd(provider string, durationSeconds float64) {
	m.SessionsClosed.WithLabelValues(provider).Inc()
	m.ActiveSessions.WithLabelValues(provider).Dec()
	m.SessionDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordConnectFailure increments the upstream connect failure counter.
func (m *Metrics) RecordConnectFailure(provider string) {
	m.ConnectFailures.WithLabelValues(provider).Inc()
}

// RecordFramesForwarded adds to the forwarded frame counter for one direction.
func (m *Metrics) RecordFramesForwarded(provider, direction string, n int) {
	if n > 0 {
		m.FramesForwarded.WithLabelValues(provider, direction).Add(float64(n))
	}
}

// RecordDecodeError increments the decode error counter.
func (m *Metrics) RecordDecodeError(provider string) {
	m.DecodeErrors.WithLabelValues(provider).Inc()
}

// RecordStoreAppend records a transcript append attempt.
func (m *Metrics) RecordStoreAppend(err error) {
	if err != nil {
		m.StoreAppendErrors.Inc()
		return
	}
	m.StoreAppends.Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
}
