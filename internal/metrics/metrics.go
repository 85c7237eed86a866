// Package metrics exposes Prometheus metrics of the tool server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the tool server collectors. Each Metrics owns its
// registry, so several servers can live in one process.
type Metrics struct {
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	Terms        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotensor_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gotensor_tool_duration_seconds",
				Help:    "Tool call duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"tool"},
		),
		Terms: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotensor_result_terms_total",
				Help: "Number of top-level terms in tool results",
			},
			[]string{"tool"},
		),
		registry: reg,
	}
}

// RecordTool records one tool call.
func (m *Metrics) RecordTool(tool string, failed bool, d time.Duration, terms int) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
	if terms > 0 {
		m.Terms.WithLabelValues(tool).Add(float64(terms))
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
