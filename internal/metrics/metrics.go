// Package metrics exposes Prometheus counters for detector traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aitm_detector"

// Metrics holds the detector collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	verdicts   *prometheus.CounterVec
	responses  *prometheus.CounterVec
	faults     prometheus.Counter
	logDropped prometheus.Counter
	duration   *prometheus.HistogramVec
}

// New creates and registers the detector collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Referer classifications by verdict.",
			},
			[]string{"verdict"},
		),
		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_total",
				Help:      "Detection responses by outcome.",
			},
			[]string{"outcome"},
		),
		faults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "faults_total",
				Help:      "Internal faults answered fail-open.",
			},
		),
		logDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "log_dropped_total",
				Help:      "Detection log entries dropped by the flood guard.",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"method", "path", "status"},
		),
	}

	m.registry.MustRegister(
		m.verdicts,
		m.responses,
		m.faults,
		m.logDropped,
		m.duration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)

	return m
}

// Handler returns an HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordVerdict counts a classification
func (m *Metrics) RecordVerdict(verdict string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(verdict).Inc()
}

// RecordResponse counts a rendered detection outcome
func (m *Metrics) RecordResponse(outcome string) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(outcome).Inc()
}

// RecordFault counts a fail-open fault
func (m *Metrics) RecordFault() {
	if m == nil {
		return
	}
	m.faults.Inc()
}

// RecordLogDropped counts a detection log entry suppressed by the flood guard
func (m *Metrics) RecordLogDropped() {
	if m == nil {
		return
	}
	m.logDropped.Inc()
}

// ObserveRequest records the duration of an HTTP request
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
