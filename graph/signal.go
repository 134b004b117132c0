package graph

import "time"

// SignalKind enumerates the out-of-band messages a node may raise. Signals
// never alter control flow; the scheduler's core loop is a pure state
// transition, and signals are appended to the snapshot. The runner has no
// subscriber mechanism: the snapshot is the only place signals appear.
type SignalKind string

const (
	SignalContextWindowWarning  SignalKind = "context_window_warning"
	SignalCheckpoint            SignalKind = "checkpoint"
	SignalHumanInputRequired    SignalKind = "human_input_required"
	SignalDebugReportGenerated  SignalKind = "debug_report_generated"
)

// Signal is an out-of-band message from a node to the runner or its owner.
type Signal struct {
	Kind    SignalKind
	Data    map[string]any
	Message string
}

// DebugReport is a structured post-mortem for a node execution error,
// accumulated into state under an "accumulating" field (workflow:"concat").
type DebugReport struct {
	ErrorSummary    string
	StackTrace      string
	RelevantFiles   []string
	SuggestedFixes  []string
	GeneratedAt     time.Time
	NodeID          string
	ExecutionID     string
}
