package server

import (
	"net/http"
	"time"

	"github.com/hupe1980/genmesh/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects generation and HTTP metrics on a dedicated registry so
// several servers can coexist in one process (and in tests).
type Metrics struct {
	registry *prometheus.Registry

	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	httpRequestsTotal  *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generations by final stage and status",
		},
		[]string{"stage", "status"},
	)

	m.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End to end generation duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.registry.MustRegister(m.generationsTotal, m.generationDuration, m.httpRequestsTotal)
	return m
}

// RecordGeneration observes one pipeline outcome.
func (m *Metrics) RecordGeneration(out core.Outcome, dur time.Duration) {
	status := statusLabel(out.Succeeded())
	m.generationsTotal.WithLabelValues(string(out.Stage), status).Inc()
	m.generationDuration.WithLabelValues(status).Observe(dur.Seconds())
}

// RecordHTTPRequest observes one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	m.httpRequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
