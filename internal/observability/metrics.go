package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP API and the identity layer.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
	trackedSessions prometheus.Gauge
}

// NewMetrics initializes a dedicated registry and the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_errors_total",
		Help: "Failed HTTP requests by route and error code.",
	}, []string{"route", "method", "code"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_identity_resolutions_total",
		Help: "Profile resolutions by outcome.",
	}, []string{"outcome"})
	tracked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "portal_identity_tracked_sessions",
		Help: "Sessions with a live authorization context.",
	})
	registry.MustRegister(requests, duration, errs, resolutions, tracked)
	return &Metrics{
		registry:        registry,
		requestCount:    requests,
		requestDuration: duration,
		errorCount:      errs,
		resolutions:     resolutions,
		trackedSessions: tracked,
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordResolution counts identity resolution outcomes (resolved, failed, superseded).
func (m *Metrics) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// SetTrackedSessions reports how many sessions the identity registry holds.
func (m *Metrics) SetTrackedSessions(n int) {
	if m == nil {
		return
	}
	m.trackedSessions.Set(float64(n))
}

// Handler exposes the registry on a fiber route.
func (m *Metrics) Handler() fiber.Handler {
	if m == nil {
		return func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
