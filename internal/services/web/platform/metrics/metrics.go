// Package metrics owns the web service Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spabooking_web"

var (
	// Registry holds the web service collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	guardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Navigation guard decisions by outcome and role.",
		},
		[]string{"outcome", "role"},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend API calls by endpoint and result.",
		},
		[]string{"method", "endpoint", "result"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "endpoint"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Browser sessions currently held in memory.",
		},
	)

	sessionExpirations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "backend_expirations_total",
			Help:      "Identities cleared because the backend rejected the session.",
		},
	)

	liveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "connections",
			Help:      "Open live session websocket connections.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		guardDecisions,
		backendRequests,
		backendDuration,
		sessionsActive,
		sessionExpirations,
		liveConnections,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	method = strings.ToUpper(method)
	path = canonicalPath(path)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGuardDecision counts one navigation guard outcome.
func RecordGuardDecision(outcome, role string) {
	if role == "" {
		role = "anonymous"
	}
	guardDecisions.WithLabelValues(outcome, role).Inc()
}

// ObserveBackendRequest records one backend API call. endpoint should be a
// templated path so label cardinality stays bounded.
func ObserveBackendRequest(method, endpoint, result string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	method = strings.ToUpper(method)
	backendRequests.WithLabelValues(method, endpoint, result).Inc()
	backendDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SessionOpened increments the active browser session gauge.
func SessionOpened() { sessionsActive.Inc() }

// SessionClosed decrements the active browser session gauge.
func SessionClosed() { sessionsActive.Dec() }

// RecordSessionExpired counts a backend-driven identity expiry.
func RecordSessionExpired() { sessionExpirations.Inc() }

// LiveConnected increments the live connection gauge.
func LiveConnected() { liveConnections.Inc() }

// LiveDisconnected decrements the live connection gauge.
func LiveDisconnected() { liveConnections.Dec() }

// canonicalPath keeps the first two segments and replaces numeric ids.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for i, part := range parts {
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
