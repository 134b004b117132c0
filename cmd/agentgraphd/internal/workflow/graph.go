package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/flowforge/agentgraph/graph"
	"github.com/flowforge/agentgraph/graph/task"
	"github.com/flowforge/agentgraph/subagent"
)

// Build compiles the demo graph: decompose -> work (task-loop over the DAG
// scheduler's ready-set, dispatching to worker) -> finalize.
func Build(worker subagent.Subagent) (*graph.CompiledGraph[State], error) {
	loopNode := task.Loop(task.LoopConfig[State]{
		GetTasks: func(s State) task.List { return s.Tasks },
		SetTasks: func(s State, l task.List) State { s.Tasks = l; return s },
		DeadlockRecovery: func(d task.Diagnostic, l task.List) (task.List, bool) {
			// The demo has no external edit source to recover from a cycle or
			// an exhausted error-dependency; stop the loop and surface it.
			return l, false
		},
		Body: func(ctx context.Context, s State, ready []task.Task) (State, graph.Next, []graph.Signal, error) {
			if len(ready) == 0 {
				return s, graph.Next{}, nil, nil
			}

			assignments := make([]subagent.Assignment, len(ready))
			for i, t := range ready {
				assignments[i] = subagent.Assignment{
					TaskID:     t.ID,
					Content:    t.Content,
					ActiveForm: t.ActiveForm,
				}
			}

			results, err := worker.SpawnParallel(ctx, assignments)
			if err != nil {
				return s, graph.Next{}, nil, fmt.Errorf("workflow: dispatch ready tasks: %w", err)
			}

			tasks := s.Tasks
			var reports []graph.DebugReport
			for i, t := range ready {
				result := results[i]
				status := task.StatusCompleted
				if !result.Success {
					status = task.StatusError
					reports = append(reports, graph.DebugReport{
						ErrorSummary: fmt.Sprintf("%s: %s", t.ID, result.Error),
						StackTrace:   fmt.Sprintf("%+v", errors.New(result.Error)),
						NodeID:       t.ID,
						GeneratedAt:  time.Now(),
					})
				}
				tasks = tasks.WithStatus(t.ID, status)
			}
			s.Tasks = tasks
			s.DebugReports = reports
			return s, graph.Next{}, nil, nil
		},
	})

	finalize := graph.NodeFunc[State](func(_ context.Context, s State) graph.NodeResult[State] {
		s.Result = "all tasks completed"
		return graph.NodeResult[State]{Delta: s, Route: graph.Stop()}
	})

	builder := graph.NewBuilder[State]()
	builder.
		Start("decompose", decomposeNode()).
		Then("work", loopNode).
		Then("finalize", finalize)

	return builder.Compile()
}

// decomposeNode splits Spec into one task per non-blank line, in
// declaration order, with no inter-task dependencies: a minimal stand-in for
// the real decomposition prompt a production worker would run.
func decomposeNode() graph.Node[State] {
	return graph.NodeFunc[State](func(_ context.Context, s State) graph.NodeResult[State] {
		var items []task.Task
		for i, line := range strings.Split(s.Spec, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			items = append(items, task.Task{
				ID:         fmt.Sprintf("#%d", i+1),
				Content:    line,
				ActiveForm: "Working on: " + line,
				Status:     task.StatusPending,
			})
		}
		s.Tasks = task.NewList(items)
		return graph.NodeResult[State]{Delta: s}
	})
}
