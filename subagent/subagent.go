// Package subagent defines the worker boundary the DAG task scheduler and
// task-loop combinator dispatch across: an agent runtime capable of taking a
// task assignment and returning a result, singly or in a parallel batch.
package subagent

import "context"

// Assignment is one unit of work handed to a worker: a task's content and
// activeForm plus whatever context its blockers contribute (e.g. their
// outputs, summarized).
type Assignment struct {
	TaskID         string
	Content        string
	ActiveForm     string
	BlockerContext []string
}

// Result is a worker's report on one Assignment. Success=false with a
// non-empty Error represents an in-band failure (the worker ran and
// reported it could not complete the task) as opposed to a transport error
// returned alongside Result from Spawn/SpawnParallel.
type Result struct {
	Success bool
	Output  string
	Error   string
}

// Subagent is the only way the scheduler touches an agent runtime. Spawn
// runs one assignment; SpawnParallel runs many concurrently and returns
// exactly one Result per input, in input order, regardless of per-task
// failure (a failed assignment surfaces as Result.Success=false, not as the
// returned error — the returned error is reserved for failures that make
// the whole batch unusable, e.g. the worker pool itself could not start).
type Subagent interface {
	Spawn(ctx context.Context, assignment Assignment) (Result, error)
	SpawnParallel(ctx context.Context, assignments []Assignment) ([]Result, error)
}
