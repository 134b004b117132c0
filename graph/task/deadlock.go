package task

// DiagnosticKind classifies why a DAG scheduler iteration made no forward
// progress.
type DiagnosticKind string

const (
	DiagnosticNone            DiagnosticKind = "none"
	DiagnosticCycle           DiagnosticKind = "cycle"
	DiagnosticErrorDependency DiagnosticKind = "error_dependency"
)

// Diagnostic is the tagged result of a deadlock check. Only the fields
// relevant to Kind are populated.
type Diagnostic struct {
	Kind DiagnosticKind

	// Path is the cycle, as a sequence of task ids, for Kind == DiagnosticCycle.
	Path []string

	// TaskID is the pending task blocked on an errored dependency, and
	// BlockingErrorIDs its blockers currently in StatusError, for
	// Kind == DiagnosticErrorDependency.
	TaskID          string
	BlockingErrorIDs []string
}

// Diagnose checks the task list for the two non-progress conditions the DAG
// scheduler must recognize, cycle taking precedence over error_dependency
// when both are present in the same pass.
func Diagnose(l List) Diagnostic {
	if path, ok := findCycle(l); ok {
		return Diagnostic{Kind: DiagnosticCycle, Path: path}
	}
	if taskID, blockers, ok := findErrorDependency(l); ok {
		return Diagnostic{Kind: DiagnosticErrorDependency, TaskID: taskID, BlockingErrorIDs: blockers}
	}
	return Diagnostic{Kind: DiagnosticNone}
}

// findCycle runs DFS over the task -> blockedBy edges (a task depends on,
// i.e. points to, its blockers). Tasks with invalid ids have already been
// excluded from l.Tasks by NewList and are tallied separately in
// l.Unresolved, not considered here.
func findCycle(l List) ([]string, bool) {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)
	color := make(map[string]int, len(l.Tasks))
	byID := make(map[string]Task, len(l.Tasks))
	for _, t := range l.Tasks {
		byID[t.ID] = t
	}

	var stack []string
	var cyclePath []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range byID[id].BlockedBy {
			switch color[dep] {
			case gray:
				// Found the back edge; extract the cycle from the stack.
				for i, s := range stack {
					if s == dep {
						cyclePath = append(append([]string(nil), stack[i:]...), dep)
						return true
					}
				}
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, t := range l.Tasks {
		if color[t.ID] == white {
			if visit(t.ID) {
				return cyclePath, true
			}
		}
	}
	return nil, false
}

// findErrorDependency reports the first pending task (in list order) that
// is blocked on at least one task currently in StatusError.
func findErrorDependency(l List) (taskID string, blockingErrorIDs []string, found bool) {
	byID := make(map[string]Task, len(l.Tasks))
	for _, t := range l.Tasks {
		byID[t.ID] = t
	}
	for _, t := range l.Tasks {
		if t.Status != StatusPending {
			continue
		}
		var errored []string
		for _, b := range t.BlockedBy {
			if byID[b].Status == StatusError {
				errored = append(errored, b)
			}
		}
		if len(errored) > 0 {
			return t.ID, errored, true
		}
	}
	return "", nil, false
}
