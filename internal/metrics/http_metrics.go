package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// AuthOutcomeCounter counts auth lifecycle operations by outcome so
	// credential-stuffing and token-replay spikes show up on dashboards.
	AuthOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Total auth operations (login, register, refresh, logout) by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// MustRegister registers all collectors with the default registry. Call once
// at startup.
func MustRegister() {
	prometheus.MustRegister(requestCounter, requestDuration, AuthOutcomeCounter)
}

// ObserveAuth records one auth operation outcome ("ok", "denied", "error").
func ObserveAuth(operation, outcome string) {
	AuthOutcomeCounter.WithLabelValues(operation, outcome).Inc()
}

// Middleware records request count and duration per route. It uses c.Path()
// so parameterized routes collapse to one label value.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			path := c.Path()
			requestCounter.WithLabelValues(method, path, status).Inc()
			requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
