package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exposes Prometheus-compatible counters and histograms
// for production monitoring of graph execution:
//
//   - inflight_nodes (gauge): nodes executing concurrently right now.
//   - step_latency_ms (histogram): node execution duration, by node and status.
//   - retries_total (counter): retry attempts, by execution and node.
//   - checkpoints_saved_total (counter): checkpoint saves, by label.
//   - deadlocks_total (counter): DAG scheduler deadlock diagnostics, by kind.
//
// All metrics are namespaced "agentgraph". Pass prometheus.DefaultRegisterer
// for the global registry, or a fresh *prometheus.Registry for isolation.
type PrometheusMetrics struct {
	inflightNodes    prometheus.Gauge
	stepLatency      *prometheus.HistogramVec
	retries          *prometheus.CounterVec
	checkpointsSaved *prometheus.CounterVec
	deadlocks        *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics registers all metrics with registry and returns the
// collector. A nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		enabled: true,
		inflightNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "agentgraph",
			Name:      "inflight_nodes",
			Help:      "Nodes (including parallel fan-out children) executing right now",
		}),
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentgraph",
			Name:      "step_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"execution_id", "node_id", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "retries_total",
			Help:      "Node retry attempts",
		}, []string{"execution_id", "node_id"}),
		checkpointsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "checkpoints_saved_total",
			Help:      "Checkpoint saves, by label",
		}, []string{"execution_id", "label"}),
		deadlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgraph",
			Name:      "deadlocks_total",
			Help:      "DAG scheduler deadlock diagnostics, by kind (cycle, error_dependency)",
		}, []string{"kind"}),
	}
}

func (pm *PrometheusMetrics) RecordStepLatency(executionID, nodeID string, d time.Duration, status string) {
	if !pm.isEnabled() {
		return
	}
	pm.stepLatency.WithLabelValues(executionID, nodeID, status).Observe(float64(d.Milliseconds()))
}

func (pm *PrometheusMetrics) IncrementRetries(executionID, nodeID string) {
	if !pm.isEnabled() {
		return
	}
	pm.retries.WithLabelValues(executionID, nodeID).Inc()
}

func (pm *PrometheusMetrics) IncrementCheckpointsSaved(executionID, label string) {
	if !pm.isEnabled() {
		return
	}
	pm.checkpointsSaved.WithLabelValues(executionID, label).Inc()
}

func (pm *PrometheusMetrics) IncrementDeadlocks(kind string) {
	if !pm.isEnabled() {
		return
	}
	pm.deadlocks.WithLabelValues(kind).Inc()
}

func (pm *PrometheusMetrics) UpdateInflightNodes(count int) {
	if !pm.isEnabled() {
		return
	}
	pm.inflightNodes.Set(float64(count))
}

func (pm *PrometheusMetrics) isEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// Disable temporarily stops metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
