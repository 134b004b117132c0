package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/agentgraph/graph/emit"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	t.Setenv("AGENTGRAPH_TELEMETRY", "1")
	collector, err := NewCollector(t.TempDir(), WithBatchSize(100))
	require.NoError(t, err)
	t.Cleanup(func() { _ = collector.Shutdown(context.Background()) })
	return collector
}

func TestProgressHandler_MapsRunnerEventsToTelemetryTypes(t *testing.T) {
	collector := newTestCollector(t)
	handler := NewProgressHandler(collector, "sess-1")

	handler.Emit(emit.Event{RunID: "exec-1", NodeID: "a", Msg: emit.MsgNodeStarted})
	handler.Emit(emit.Event{RunID: "exec-1", NodeID: "a", Msg: emit.MsgNodeCompleted})
	handler.Emit(emit.Event{RunID: "exec-1", Msg: "execution_completed"})
	handler.Emit(emit.Event{RunID: "exec-1", Msg: "some_unmapped_event"})

	require.NoError(t, collector.Flush(context.Background()))
	assert.Len(t, collector.buf, 0)
}

func TestProgressHandler_SkipNodeEvents(t *testing.T) {
	collector := newTestCollector(t)
	handler := &ProgressHandler{Collector: collector, SessionID: "sess-1", SkipNodeEvents: true}

	handler.Emit(emit.Event{RunID: "exec-1", NodeID: "a", Msg: emit.MsgNodeStarted})
	assert.Empty(t, collector.buf)

	handler.Emit(emit.Event{RunID: "exec-1", Msg: "execution_completed"})
	assert.Len(t, collector.buf, 1)
}

func TestProgressHandler_SkipCheckpointEvents(t *testing.T) {
	collector := newTestCollector(t)
	handler := &ProgressHandler{Collector: collector, SessionID: "sess-1", SkipCheckpoint: true}

	handler.Emit(emit.Event{RunID: "exec-1", NodeID: "a", Msg: emit.MsgCheckpointSaved})
	assert.Empty(t, collector.buf)
}

func TestProgressHandler_EmitBatch(t *testing.T) {
	collector := newTestCollector(t)
	handler := NewProgressHandler(collector, "sess-1")

	err := handler.EmitBatch(context.Background(), []emit.Event{
		{RunID: "exec-1", NodeID: "a", Msg: emit.MsgNodeStarted},
		{RunID: "exec-1", NodeID: "a", Msg: emit.MsgNodeCompleted},
	})
	require.NoError(t, err)
	assert.Len(t, collector.buf, 2)
}
