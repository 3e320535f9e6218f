// ABOUTME: Prometheus metrics for the runtime, held in a private registry
// ABOUTME: Exposed over HTTP by the liveness server

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric the runtime records.
type Metrics struct {
	registry *prometheus.Registry

	// Stream metrics
	ActiveStreams prometheus.Gauge
	TurnsTotal    *prometheus.CounterVec
	ChunksTotal   prometheus.Counter

	// Tool metrics
	ToolCallsTotal         *prometheus.CounterVec
	ToolResultLatency      *prometheus.HistogramVec
	CorrelationErrorsTotal prometheus.Counter

	// Engine metrics
	EngineLatency *prometheus.HistogramVec

	// Session store metrics
	SessionOpsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ActiveStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_streams",
				Help: "Number of Converse streams currently open",
			},
		),
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turns_total",
				Help: "Completed turns by terminal frame code, ok for Done",
			},
			[]string{"code"},
		),
		ChunksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chunks_total",
				Help: "Chunk frames sent across all streams",
			},
		),

		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_calls_total",
				Help: "Tool call frames sent, by tool name",
			},
			[]string{"tool"},
		),
		ToolResultLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_result_latency_seconds",
				Help:    "Seconds from tool call emission to its result frame",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		CorrelationErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "correlation_errors_total",
				Help: "ToolResult frames that matched no pending call",
			},
		),

		EngineLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_latency_seconds",
				Help:    "Seconds per engine round trip, by provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		SessionOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_ops_total",
				Help: "Session store operations by op, backend, and status",
			},
			[]string{"op", "backend", "status"},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.ActiveStreams)
	m.registry.MustRegister(m.TurnsTotal)
	m.registry.MustRegister(m.ChunksTotal)

	m.registry.MustRegister(m.ToolCallsTotal)
	m.registry.MustRegister(m.ToolResultLatency)
	m.registry.MustRegister(m.CorrelationErrorsTotal)

	m.registry.MustRegister(m.EngineLatency)

	m.registry.MustRegister(m.SessionOpsTotal)
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
