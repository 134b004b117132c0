package graph

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics_RecordsAgainstNamespace(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	metrics.RecordStepLatency("exec-1", "node-a", 5*time.Millisecond, "success")
	metrics.IncrementRetries("exec-1", "node-a")
	metrics.IncrementCheckpointsSaved("exec-1", "auto")
	metrics.IncrementDeadlocks("cycle")
	metrics.UpdateInflightNodes(2)

	count, err := testutil.GatherAndCount(registry)
	assert.NoError(t, err)
	assert.Greater(t, count, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.retries.WithLabelValues("exec-1", "node-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.checkpointsSaved.WithLabelValues("exec-1", "auto")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.deadlocks.WithLabelValues("cycle")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.inflightNodes))
}

func TestPrometheusMetrics_DisableSkipsRecording(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)
	metrics.Disable()

	metrics.IncrementDeadlocks("cycle")
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.deadlocks.WithLabelValues("cycle")))

	metrics.Enable()
	metrics.IncrementDeadlocks("cycle")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.deadlocks.WithLabelValues("cycle")))
}
