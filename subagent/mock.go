package subagent

import (
	"context"
	"sync"
)

// MockSubagent is a test implementation of Subagent.
//
// Use MockSubagent in tests to drive the DAG task scheduler and task-loop
// combinator without spawning real agent runtimes. It provides:
//   - Per-task scripted results, keyed by TaskID
//   - A default result for any TaskID not scripted
//   - Call history tracking
//   - Thread-safe operation
//
// Example usage:
//
//	mock := &MockSubagent{
//	    ResultsByTaskID: map[string][]Result{
//	        "#1": {{Success: false, Error: "boom"}, {Success: true, Output: "done"}},
//	    },
//	    Default: Result{Success: true},
//	}
type MockSubagent struct {
	// ResultsByTaskID maps a task id to its sequence of results. Each call
	// for that task id consumes the next entry; once exhausted, the last
	// entry repeats.
	ResultsByTaskID map[string][]Result

	// Default is returned for any TaskID absent from ResultsByTaskID.
	Default Result

	// Calls records every assignment passed to Spawn or SpawnParallel, in
	// the order seen.
	Calls []Assignment

	mu        sync.Mutex
	callIndex map[string]int
}

func (m *MockSubagent) Spawn(_ context.Context, assignment Assignment) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultLocked(assignment), nil
}

func (m *MockSubagent) SpawnParallel(_ context.Context, assignments []Assignment) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]Result, len(assignments))
	for i, a := range assignments {
		results[i] = m.resultLocked(a)
	}
	return results, nil
}

func (m *MockSubagent) resultLocked(assignment Assignment) Result {
	m.Calls = append(m.Calls, assignment)
	if m.callIndex == nil {
		m.callIndex = make(map[string]int)
	}
	seq, ok := m.ResultsByTaskID[assignment.TaskID]
	if !ok || len(seq) == 0 {
		return m.Default
	}
	idx := m.callIndex[assignment.TaskID]
	if idx >= len(seq) {
		idx = len(seq) - 1
	} else {
		m.callIndex[assignment.TaskID]++
	}
	return seq[idx]
}
