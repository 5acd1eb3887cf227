// Package metrics exposes Prometheus counters for triggered actions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// KindMalformed labels success responses whose body was not JSON.
const KindMalformed = "malformed"

// Metrics owns its registry so several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postdesk_outcomes_total",
				Help: "Completed actions by outcome kind",
			},
			[]string{"action", "backend", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postdesk_request_duration_seconds",
				Help:    "Time from trigger to outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
	}
	m.registry.MustRegister(m.outcomes, m.duration)
	return m
}

func (m *Metrics) ObserveOutcome(action, backend, kind string) {
	m.outcomes.WithLabelValues(action, backend, kind).Inc()
}

func (m *Metrics) ObserveDuration(backend string, d time.Duration) {
	m.duration.WithLabelValues(backend).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
