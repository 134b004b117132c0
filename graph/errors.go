package graph

import "errors"

// Sentinel errors for scheduler-level, non-exceptional stop conditions.
// Per the error-handling taxonomy, these never crash the host process: they
// surface as a failed/cancelled snapshot plus a recorded error, not a panic.
var (
	// ErrMaxStepsExceeded indicates execution hit its step budget without
	// reaching a terminal node.
	ErrMaxStepsExceeded = errors.New("graph: execution exceeded maximum steps limit")

	// ErrInvalidRetryPolicy indicates a RetryPolicy's numeric fields are
	// out of range (MaxAttempts < 1, BackoffMultiplier < 1, ...).
	ErrInvalidRetryPolicy = errors.New("graph: invalid retry policy")

	// ErrExecutionTimeout indicates the run's wall-clock budget elapsed.
	ErrExecutionTimeout = errors.New("graph: execution timeout")

	// ErrCancelled indicates the run's cancellation token fired at a node
	// boundary or before a retry backoff sleep.
	ErrCancelled = errors.New("graph: execution cancelled")

	// ErrNoSuchCheckpoint indicates Resume was asked for an executionId the
	// checkpointer has no snapshot for.
	ErrNoSuchCheckpoint = errors.New("graph: no checkpoint for execution")
)

// GraphError is the structured error type for build-time (InvalidGraph) and
// run-time (NodeExecutionError, CheckpointError, SubagentError) failures
// that need a machine-readable Code alongside the message.
type GraphError struct {
	Message string
	Code    string
	NodeID  string
	Cause   error
}

func (e *GraphError) Error() string {
	if e.NodeID != "" {
		return e.Code + ": " + e.Message + " (node " + e.NodeID + ")"
	}
	return e.Code + ": " + e.Message
}

func (e *GraphError) Unwrap() error { return e.Cause }

// Error codes used by GraphError across builder and runner.
const (
	CodeInvalidGraph     = "INVALID_GRAPH"
	CodeDuplicateNode    = "DUPLICATE_NODE"
	CodeNodeNotFound     = "NODE_NOT_FOUND"
	CodeUnclosedIf       = "UNCLOSED_IF"
	CodeNoStartNode      = "NO_START_NODE"
	CodeNodeExecutionErr = "NODE_EXECUTION_ERROR"
	CodeCheckpointError  = "CHECKPOINT_ERROR"
	CodeSubagentError    = "SUBAGENT_ERROR"
)
