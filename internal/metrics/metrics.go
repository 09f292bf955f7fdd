// Package metrics provides Prometheus instrumentation for workflow runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stagehand/internal/core"
)

// Manager owns the metric registry for one process.
type Manager struct {
	registry *prometheus.Registry

	attempts    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rampWorkers *prometheus.GaugeVec
	runs        *prometheus.CounterVec
}

// NewManager creates a registry with runtime collectors plus the
// engine's own metrics.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{registry: registry}

	m.attempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stagehand_attempts_total",
		Help: "Request attempts by task and result.",
	}, []string{"task", "result"})

	m.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stagehand_attempt_duration_seconds",
		Help:    "Attempt latency by task.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"task"})

	m.rampWorkers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stagehand_ramp_workers",
		Help: "Active ramp workers by task.",
	}, []string{"task"})

	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stagehand_runs_total",
		Help: "Completed workflow runs by verdict.",
	}, []string{"result"})

	registry.MustRegister(m.attempts, m.latency, m.rampWorkers, m.runs)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOutcome records one attempt.
func (m *Manager) ObserveOutcome(o core.Outcome) {
	if o.Reason == core.ReasonSkipped {
		return
	}
	result := "success"
	if !o.Success {
		result = string(o.Reason)
	}
	m.attempts.WithLabelValues(o.Task, result).Inc()
	m.latency.WithLabelValues(o.Task).Observe(o.Latency.Seconds())
}

// SetRampWorkers updates the worker gauge for a task.
func (m *Manager) SetRampWorkers(task string, active int) {
	m.rampWorkers.WithLabelValues(task).Set(float64(active))
}

// RecordRun counts a finished workflow run.
func (m *Manager) RecordRun(pass bool) {
	result := "pass"
	if !pass {
		result = "fail"
	}
	m.runs.WithLabelValues(result).Inc()
}

// WrapReporter decorates a reporter so every outcome also feeds the
// metric registry. A nil Manager returns next unchanged.
func (m *Manager) WrapReporter(next core.Reporter) core.Reporter {
	if m == nil {
		return next
	}
	return reporter{m: m, next: next}
}

type reporter struct {
	m    *Manager
	next core.Reporter
}

func (r reporter) Report(o core.Outcome) {
	r.m.ObserveOutcome(o)
	r.next.Report(o)
}
