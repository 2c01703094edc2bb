package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for application monitoring. All metrics live in the
// default registry and are exposed via the /metrics endpoint.

var (
	// httpRequestsTotal counts all HTTP requests by method, path, and status.
	//
	// Labels: method, path, status
	// Type: Counter
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration measures request processing time for latency
	// analysis (P50, P95, P99).
	//
	// Labels: method, path
	// Type: Histogram
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// authAttemptsTotal counts authentication attempts by operation and
	// result. Use for security monitoring and abuse detection.
	//
	// Labels: operation (register, login), result (success, conflict,
	// invalid_credentials, error)
	// Type: Counter
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"operation", "result"},
	)

	// tokenRefreshTotal counts token refresh attempts by result.
	//
	// Labels: result (success, unauthorized, error)
	// Type: Counter
	tokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refresh_total",
			Help: "Total number of token refresh attempts",
		},
		[]string{"result"},
	)

	// sessionsRevokedTotal counts explicit session terminations (logout and
	// revocation), as opposed to passive expiry which is never observed.
	//
	// Type: Counter
	sessionsRevokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Total number of sessions terminated by logout or revocation",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(authAttemptsTotal)
	prometheus.MustRegister(tokenRefreshTotal)
	prometheus.MustRegister(sessionsRevokedTotal)
}

// Metrics creates middleware recording request count and duration for every
// request that passes through. The response writer is wrapped to capture
// the status code.
//
// Example Prometheus queries:
//
//	# Request rate by endpoint
//	rate(http_requests_total[5m])
//
//	# P95 latency
//	histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := strconv.Itoa(ww.Status())
			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}

// MetricsHandler returns the Prometheus metrics handler for scraping.
//
// Usage:
//
//	r.Get("/metrics", middleware.MetricsHandler().ServeHTTP)
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// IncrementAuthAttempts records the outcome of a register or login attempt.
func IncrementAuthAttempts(operation, result string) {
	authAttemptsTotal.WithLabelValues(operation, result).Inc()
}

// IncrementTokenRefresh records the outcome of a token refresh.
func IncrementTokenRefresh(result string) {
	tokenRefreshTotal.WithLabelValues(result).Inc()
}

// AddSessionsRevoked records explicit session terminations.
func AddSessionsRevoked(count int) {
	sessionsRevokedTotal.Add(float64(count))
}
