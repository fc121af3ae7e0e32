package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "blissbite"

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	SignupSteps *prometheus.CounterVec
	Sessions    *prometheus.CounterVec
	RateLimited *prometheus.CounterVec
}

// NewMetrics registers the domain collectors on a private registry together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		SignupSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signup",
			Name:      "steps_total",
			Help:      "Signup state machine transitions by step and outcome.",
		}, []string{"step", "outcome"}),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "events_total",
			Help:      "Session lifecycle events by kind.",
		}, []string{"event"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limit rule.",
		}, []string{"rule"}),
	}

	registry.MustRegister(m.SignupSteps, m.Sessions, m.RateLimited)
	return m
}

// RateLimitHit records a request rejected by rule. Safe on a nil receiver.
func (m *Metrics) RateLimitHit(rule string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(rule).Inc()
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SignupStep records one signup transition. Safe on a nil receiver.
func (m *Metrics) SignupStep(step, outcome string) {
	if m == nil {
		return
	}
	m.SignupSteps.WithLabelValues(step, outcome).Inc()
}

// SessionEvent records a session lifecycle event. Safe on a nil receiver.
func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(event).Inc()
}
