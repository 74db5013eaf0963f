// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	presenceEvents *prometheus.CounterVec
}

// New builds the registry. activeSessions is sampled on every scrape.
func New(activeSessions func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyhall_http_requests_total",
			Help: "HTTP requests served, by method, route, and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studyhall_http_request_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		presenceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyhall_presence_events_total",
			Help: "Presence events recorded, by kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.presenceEvents,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "studyhall_sessions_active",
			Help: "Live (non-expired) sessions.",
		}, activeSessions),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one served request. path is the route template, not
// the raw URL, to keep cardinality bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObservePresenceEvent records one presence event.
func (m *Metrics) ObservePresenceEvent(kind string) {
	m.presenceEvents.WithLabelValues(kind).Inc()
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
