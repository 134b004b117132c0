// Package workflow assembles the demo code-writing agent loop described in
// the engine's flagship workload: decompose a spec into tasks, dispatch
// ready tasks to worker subagents, loop until done, finalize.
package workflow

import (
	"github.com/flowforge/agentgraph/graph"
	"github.com/flowforge/agentgraph/graph/task"
)

// State is the demo workload's shared state: a natural-language spec, the
// task list the DAG scheduler mutates, and an accumulating debug trail.
type State struct {
	meta graph.Meta

	Spec         string
	Tasks        task.List
	DebugReports []graph.DebugReport `workflow:"concat"`
	Result       string
}

// Meta implements graph.Stateful.
func (s State) Meta() graph.Meta { return s.meta }

// WithMeta implements graph.Stateful.
func (s State) WithMeta(m graph.Meta) State { s.meta = m; return s }
