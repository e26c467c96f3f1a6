// Package metrics exposes the console's prometheus instruments.
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

const namespace = "purepac_admin"

// Metrics owns a registry and the console's collectors.
type Metrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	listFetches     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	mutations       *prometheus.CounterVec
}

// New creates the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the REST backend by resource, method and outcome (ok, rejected, error).",
		}, []string{"resource", "method", "outcome"}),

		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of REST backend requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "method"}),

		listFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_fetches_total",
			Help:      "List fetches by resource and outcome (loaded, failed, stale).",
		}, []string{"resource", "outcome"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Console HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Successful create, update, delete and upload operations by resource.",
		}, []string{"resource", "action"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.backendRequests, m.backendDuration,
		m.listFetches, m.httpRequests, m.mutations,
	)
	return m
}

// ObserveBackendRequest records one backend call. It satisfies backend.Observer.
func (m *Metrics) ObserveBackendRequest(resource, method, outcome string, elapsed time.Duration) {
	m.backendRequests.WithLabelValues(resource, method, outcome).Inc()
	if elapsed > 0 {
		m.backendDuration.WithLabelValues(resource, method).Observe(elapsed.Seconds())
	}
}

// ListObserver returns a callback counting list fetch outcomes of resource.
func (m *Metrics) ListObserver(resource string) func(outcome string) {
	return func(outcome string) {
		m.listFetches.WithLabelValues(resource, outcome).Inc()
	}
}

// Mutation counts one successful write.
func (m *Metrics) Mutation(resource, action string) {
	m.mutations.WithLabelValues(resource, action).Inc()
}

// Middleware counts every request by its route template, so path ids do not
// explode label cardinality. Unmatched routes count under "unmatched".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
