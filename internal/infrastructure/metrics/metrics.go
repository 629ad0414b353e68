// Package metrics exposes storefront metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names.
const (
	MetricBackendRequestsTotal   = "minimart_backend_requests_total"
	MetricBackendDurationSeconds = "minimart_backend_request_duration_seconds"
	MetricCartOperationsTotal    = "minimart_cart_operations_total"
	MetricCartDurationSeconds    = "minimart_cart_operation_duration_seconds"
	MetricActiveVisitors         = "minimart_active_visitors"
	MetricHTTPRequestsTotal      = "minimart_http_requests_total"
	MetricHTTPDurationSeconds    = "minimart_http_request_duration_seconds"
)

// Registry owns the storefront's Prometheus collectors.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Registry struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	cartOperations  *prometheus.CounterVec
	cartDuration    *prometheus.HistogramVec
	activeVisitors  prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewRegistry creates a Registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.backendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricBackendRequestsTotal,
		Help: "Requests sent to the store backend.",
	}, []string{"method", "route", "status"})
	r.backendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricBackendDurationSeconds,
		Help:    "Latency of store backend requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	r.cartOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricCartOperationsTotal,
		Help: "Cart operations by outcome.",
	}, []string{"op", "outcome"})
	r.cartDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricCartDurationSeconds,
		Help:    "Duration of cart operations including reconciliation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	r.activeVisitors = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricActiveVisitors,
		Help: "Visitors currently held in memory.",
	})
	r.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricHTTPRequestsTotal,
		Help: "Storefront HTTP requests.",
	}, []string{"method", "route", "status"})
	r.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricHTTPDurationSeconds,
		Help:    "Storefront HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.backendRequests,
		r.backendDuration,
		r.cartOperations,
		r.cartDuration,
		r.activeVisitors,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// ObserveBackendCall records one backend request. A status of 0 means the
// request never got a response.
func (r *Registry) ObserveBackendCall(method, route string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.backendRequests.WithLabelValues(method, route, label).Inc()
	r.backendDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveCartOperation records one cart operation.
func (r *Registry) ObserveCartOperation(op, outcome string, d time.Duration) {
	r.cartOperations.WithLabelValues(op, outcome).Inc()
	r.cartDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetActiveVisitors sets the active visitor gauge.
func (r *Registry) SetActiveVisitors(n int) {
	r.activeVisitors.Set(float64(n))
}

// GinMiddleware records request counts and latency by matched route.
func (r *Registry) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
