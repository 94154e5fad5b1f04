// Package metrics implements the metrics aggregator (C11): counters,
// histograms, and gauges for tool executions, exposed in Prometheus text
// format.
//
// Grounded on cortex-gateway's registration pattern (a private
// prometheus.Registry, one *Vec per series, served via promhttp.HandlerFor
// rather than the global default registry) generalized to the counters,
// histogram, and gauges spec.md §4.10 names.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"secmcp/internal/errs"
)

// executionSecondsBuckets spans 10ms-600s, per spec.md §4.10.
var executionSecondsBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// Metrics owns every series C11 exposes and a private registry so /metrics
// never leaks process-wide default-registry collectors.
type Metrics struct {
	registry *prometheus.Registry

	executionsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	executionSeconds *prometheus.HistogramVec
	active           *prometheus.GaugeVec
	breakerState     *prometheus.GaugeVec
	uptimeSeconds    prometheus.GaugeFunc

	start time.Time
}

// New builds a Metrics with every series registered against a fresh,
// private prometheus.Registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	start := time.Now()

	m := &Metrics{
		registry: reg,
		executionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "executions_total",
			Help: "Total tool executions attempted, by tool, status, and error_type.",
		}, []string{"tool", "status", "error_type"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total failed tool executions, by tool and error_type.",
		}, []string{"tool", "error_type"}),
		executionSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "execution_seconds",
			Help:    "Wall-clock duration of tool executions, by tool.",
			Buckets: executionSecondsBuckets,
		}, []string{"tool"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "active",
			Help: "Currently in-flight executions, by tool.",
		}, []string{"tool"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per tool (0=closed, 1=open, 2=half_open).",
		}, []string{"tool"}),
		start: start,
	}
	m.uptimeSeconds = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "uptime_seconds",
		Help: "Seconds since process start.",
	}, func() float64 { return time.Since(m.start).Seconds() })

	reg.MustRegister(m.executionsTotal, m.errorsTotal, m.executionSeconds, m.active, m.breakerState, m.uptimeSeconds)
	return m
}

// RecordExecution implements tool.Metrics: records the counters and
// histogram for one completed execution. Never blocks the caller on a
// recording failure; client_golang's Vec operations cannot themselves
// return an error, so this never has anything to swallow, but kept as a
// dedicated method so a future exporter (e.g. one that can fail) has a
// single choke point to guard.
func (m *Metrics) RecordExecution(toolName string, success, timedOut bool, errType errs.ErrorType, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.executionsTotal.WithLabelValues(toolName, status, string(errType)).Inc()
	if !success {
		m.errorsTotal.WithLabelValues(toolName, string(errType)).Inc()
	}
	m.executionSeconds.WithLabelValues(toolName).Observe(duration.Seconds())
}

// SetActive adjusts the active gauge for toolName by delta (+1 on
// acquire, -1 on release).
func (m *Metrics) SetActive(toolName string, delta int) {
	m.active.WithLabelValues(toolName).Add(float64(delta))
}

// SetBreakerState sets the circuit_breaker_state gauge for toolName.
func (m *Metrics) SetBreakerState(toolName string, state float64) {
	m.breakerState.WithLabelValues(toolName).Set(state)
}

// Handler returns the /metrics HTTP handler serving this registry's series
// in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
