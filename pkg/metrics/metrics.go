// Package metrics collects Prometheus metrics for the HTTP layer and
// exposes them over a scrape endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apiforge/apiforge/pkg/common"
)

// Collector holds the framework's HTTP metrics, registered on a dedicated
// registry so applications can add their own collectors alongside.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	authRejections   prometheus.Counter
	rateLimited      *prometheus.CounterVec
}

// NewCollector creates a Collector with all metrics registered on a fresh
// registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed, by method, path and status code.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds, by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		authRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_rejections_total",
			Help:      "Total requests rejected by authentication.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by rate limiting, by bucket.",
		}, []string{"bucket"}),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.requestsInFlight,
		c.authRejections,
		c.rateLimited,
	)
	return c
}

// Registry returns the underlying registry for registering application
// collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the scrape handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordAuthRejection increments the authentication rejection counter.
func (c *Collector) RecordAuthRejection() {
	c.authRejections.Inc()
}

// RecordRateLimited increments the rate limit rejection counter for a bucket.
func (c *Collector) RecordRateLimited(bucket string) {
	c.rateLimited.WithLabelValues(bucket).Inc()
}

// Instrument returns a middleware that records request count, latency and
// in-flight gauge for every request passing through it.
func (c *Collector) Instrument() common.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.requestsInFlight.Inc()
			defer c.requestsInFlight.Dec()

			start := time.Now()
			rw := &observedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			elapsed := time.Since(start).Seconds()
			c.requestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
			c.requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed)
		})
	}
}

// observedResponseWriter captures the status code written by the handler.
type observedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *observedResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
