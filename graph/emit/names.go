package emit

// Event message names used by graph.Runner.
// Centralizing them here keeps the runner's Emit calls and any consumer
// (telemetry.Collector, a progress UI) agreed on the exact vocabulary.
const (
	MsgNodeStarted      = "node_started"
	MsgNodeCompleted    = "node_completed"
	MsgNodeFailed       = "node_failed"
	MsgNodeRetried      = "node_retried"
	MsgCheckpointSaved  = "checkpoint_saved"
	MsgExecutionRunning   = "execution_running"
	MsgExecutionCompleted = "execution_completed"
	MsgExecutionFailed    = "execution_failed"
	MsgExecutionCancelled = "execution_cancelled"
)

// NodeEvent builds an Event for a node-scoped occurrence.
func NodeEvent(runID, nodeID, msg string, meta map[string]interface{}) Event {
	return Event{RunID: runID, NodeID: nodeID, Msg: msg, Meta: meta}
}

// ExecutionEvent builds an Event for a run-scoped occurrence (no NodeID).
func ExecutionEvent(runID, msg string) Event {
	return Event{RunID: runID, Msg: msg}
}
