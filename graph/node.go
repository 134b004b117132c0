package graph

import "context"

// NodeKind classifies a node for display. The runner does not consult it:
// a node fans out only when its Route names several targets (FanOut), and
// a NodeKindParallel node whose Route does not do so runs sequentially.
type NodeKind string

const (
	NodeKindAgent    NodeKind = "agent"
	NodeKindTool     NodeKind = "tool"
	NodeKindDecision NodeKind = "decision"
	NodeKindWait     NodeKind = "wait"
	NodeKindSubgraph NodeKind = "subgraph"
	NodeKindParallel NodeKind = "parallel"
)

// Node is the fundamental unit of work in a workflow graph. Run receives the
// state as of entry and returns a delta to merge, a routing decision, and
// any out-of-band signals.
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult is the output of one node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node. It is merged
	// with the current state via MergeState (or a custom Reducer).
	Delta S

	// Route specifies the next step(s): Stop(), Goto(id), or a fan-out.
	Route Next

	// Signals are out-of-band messages appended to the execution snapshot;
	// the runner delivers them nowhere else. They never alter control flow.
	Signals []Signal

	// Err is any error the node's execution raised. Non-nil errors are
	// subject to the node's RetryPolicy before the run is marked failed.
	Err error
}

// Next specifies the next step(s) in workflow execution after a node
// completes. To, Many, and Terminal are mutually exclusive.
type Next struct {
	To       string
	Many     []string
	Terminal bool
}

// Stop returns a Next that terminates workflow execution successfully.
func Stop() Next { return Next{Terminal: true} }

// Goto returns a Next that routes to the specified node id.
func Goto(nodeID string) Next { return Next{To: nodeID} }

// FanOut returns a Next that spawns every listed node id as a parallel
// child of the current node, joining before the graph continues.
func FanOut(nodeIDs ...string) Next { return Next{Many: nodeIDs} }

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements Node.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}

// NodeDef is the immutable, statically constructed record for one node in a
// compiled graph: its id, kind, optional retry policy, optional display
// metadata, and the executable Node itself.
type NodeDef[S any] struct {
	ID          string
	Kind        NodeKind
	Node        Node[S]
	Retry       *RetryPolicy
	SideEffect  SideEffectPolicy
	DisplayName string
}

// NodeError represents an error raised during node execution, carrying
// enough structure for observability and for DebugReport generation.
type NodeError struct {
	Message string
	Code    string
	NodeID  string
	Cause   error
}

func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

func (e *NodeError) Unwrap() error { return e.Cause }
