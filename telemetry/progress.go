package telemetry

import (
	"context"

	"github.com/flowforge/agentgraph/graph/emit"
)

// ProgressHandler adapts the runner's emit.Event stream into structured
// telemetry, implementing emit.Emitter so it can be handed to
// graph.NewRunner directly (or fanned out alongside a LogEmitter via the
// teacher's multi-emit pattern). It never returns an error from Emit —
// telemetry failures must never affect workflow correctness.
type ProgressHandler struct {
	Collector      *Collector
	SessionID      string
	SkipNodeEvents bool
	SkipCheckpoint bool
}

// NewProgressHandler builds a handler that tracks every event through
// collector, tagged with sessionID.
func NewProgressHandler(collector *Collector, sessionID string) *ProgressHandler {
	return &ProgressHandler{Collector: collector, SessionID: sessionID}
}

// Emit maps one runner event onto a graph.execution.*, graph.node.*, or
// graph.checkpoint.* telemetry event type and tracks it.
func (p *ProgressHandler) Emit(event emit.Event) {
	eventType, ok := eventType(event.Msg)
	if !ok {
		return
	}
	if p.SkipNodeEvents && event.NodeID != "" && eventType != "graph.checkpoint.saved" {
		return
	}
	if p.SkipCheckpoint && eventType == "graph.checkpoint.saved" {
		return
	}

	properties := make(map[string]interface{}, len(event.Meta)+1)
	for k, v := range event.Meta {
		properties[k] = v
	}
	if event.NodeID != "" {
		properties["nodeId"] = event.NodeID
	}

	p.Collector.Track(eventType, properties, p.SessionID, event.RunID)
}

// EmitBatch tracks every event in order; partial failures are impossible
// since Track itself cannot fail.
func (p *ProgressHandler) EmitBatch(ctx context.Context, events []emit.Event) error {
	for _, e := range events {
		p.Emit(e)
	}
	return nil
}

// Flush delegates to the underlying Collector.
func (p *ProgressHandler) Flush(ctx context.Context) error {
	return p.Collector.Flush(ctx)
}

func eventType(msg string) (string, bool) {
	switch msg {
	case emit.MsgExecutionRunning:
		return "graph.execution.started", true
	case emit.MsgExecutionCompleted:
		return "graph.execution.completed", true
	case emit.MsgExecutionFailed:
		return "graph.execution.failed", true
	case emit.MsgExecutionCancelled:
		return "graph.execution.cancelled", true
	case emit.MsgNodeStarted:
		return "graph.node.started", true
	case emit.MsgNodeCompleted:
		return "graph.node.completed", true
	case emit.MsgNodeFailed:
		return "graph.node.failed", true
	case emit.MsgNodeRetried:
		return "graph.node.retried", true
	case emit.MsgCheckpointSaved:
		return "graph.checkpoint.saved", true
	default:
		return "", false
	}
}
