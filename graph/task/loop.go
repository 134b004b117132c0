package task

import (
	"context"

	"github.com/flowforge/agentgraph/graph"
)

// DefaultMaxIterations bounds a Loop's iteration count when LoopConfig
// leaves MaxIterations unset.
const DefaultMaxIterations = 100

// LoopConfig configures a task-loop combinator: a node that repeatedly runs
// a body over ready tasks until an until-predicate is satisfied or the loop
// exhausts its iteration budget.
type LoopConfig[S graph.Stateful[S]] struct {
	// MaxIterations caps how many times the loop runs its body. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// GetTasks/SetTasks read and write the task list embedded in the
	// workload's state type.
	GetTasks func(state S) List
	SetTasks func(state S, l List) S

	// Reload, if set, is called at the start of every iteration to pick up
	// external edits to the task list (e.g. a human editing tasks.json on
	// disk mid-run) before Until/ReadySelector/DeadlockRecovery run.
	Reload func(ctx context.Context, current List) (List, error)

	// Until decides loop termination. Nil defaults to List.AllCompleted.
	Until func(l List) bool

	// ReadySelector picks the tasks to hand to Body this iteration. Nil
	// defaults to List.Ready (list order, pending + blockers completed).
	ReadySelector func(l List) []Task

	// DeadlockRecovery is consulted when Diagnose reports anything other
	// than DiagnosticNone. Returning (recoveredList, true) lets the loop
	// continue with the recovered list; returning (_, false) stops the
	// loop, preserving the list as Diagnose saw it. Nil means no recovery:
	// any deadlock stops the loop immediately.
	DeadlockRecovery func(diag Diagnostic, l List) (List, bool)

	// Body runs once per iteration against the ready tasks selected this
	// round. It returns the updated state, a routing decision, and any
	// signals. Any set Route (Stop, Goto or FanOut) or any returned signal
	// aborts the loop; the node then returns that Route and those signals
	// to the outer graph.
	Body func(ctx context.Context, state S, ready []Task) (S, graph.Next, []graph.Signal, error)
}

// Outcome summarizes how a Loop run ended.
type Outcome struct {
	Iterations           int
	MaxIterationsReached bool
	ShouldContinue       bool
	FinalDiagnostic      Diagnostic
}

// Loop builds a graph.Node implementing the task-loop combinator described
// by cfg. The returned node's NodeResult.Delta carries the final task list
// (via cfg.SetTasks) plus whatever Body's state carries. The loop's Outcome
// (iteration count, MaxIterationsReached, ShouldContinue) is computed but
// not returned, and neither SetTasks nor Body receives it, so no
// maxIterationsReached or shouldContinue flag is recorded in state.
func Loop[S graph.Stateful[S]](cfg LoopConfig[S]) graph.Node[S] {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	until := cfg.Until
	if until == nil {
		until = List.AllCompleted
	}
	selector := cfg.ReadySelector
	if selector == nil {
		selector = List.Ready
	}

	return graph.NodeFunc[S](func(ctx context.Context, state S) graph.NodeResult[S] {
		current := cfg.GetTasks(state)
		outcome := Outcome{ShouldContinue: true}

		for iteration := 1; iteration <= maxIter; iteration++ {
			outcome.Iterations = iteration

			if cfg.Reload != nil {
				reloaded, err := cfg.Reload(ctx, current)
				if err != nil {
					return graph.NodeResult[S]{Delta: cfg.SetTasks(state, current), Err: err}
				}
				current = reloaded
			}

			if until(current) {
				break
			}

			diag := Diagnose(current)
			if diag.Kind != DiagnosticNone {
				if cfg.DeadlockRecovery == nil {
					outcome.ShouldContinue = false
					outcome.FinalDiagnostic = diag
					break
				}
				recovered, ok := cfg.DeadlockRecovery(diag, current)
				if !ok {
					outcome.ShouldContinue = false
					outcome.FinalDiagnostic = diag
					break
				}
				current = recovered
				continue
			}

			ready := selector(current)
			if len(ready) == 0 {
				break
			}

			next, route, signals, err := cfg.Body(ctx, state, ready)
			if err != nil {
				return graph.NodeResult[S]{Delta: cfg.SetTasks(state, current), Signals: signals, Err: err}
			}
			state = next
			current = cfg.GetTasks(state)

			if route.Terminal || route.To != "" || len(route.Many) > 0 || len(signals) > 0 {
				return graph.NodeResult[S]{Delta: cfg.SetTasks(state, current), Route: route, Signals: signals}
			}
		}

		if outcome.Iterations >= maxIter && !until(current) {
			outcome.MaxIterationsReached = true
			outcome.ShouldContinue = false
		}

		return graph.NodeResult[S]{Delta: cfg.SetTasks(state, current)}
	})
}
