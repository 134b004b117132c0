package task

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/flowforge/agentgraph/graph"
	"github.com/flowforge/agentgraph/subagent"
)

// DefaultMaxRetries is how many times the scheduler resets an
// error-blocking task to pending before giving up on it, per Dispatch call.
const DefaultMaxRetries = 3

// DispatchResult is one pass of the DAG scheduler's dispatch loop.
type DispatchResult struct {
	Tasks          List
	ShouldContinue bool
	Diagnostic     Diagnostic
	DispatchedIDs  []string // ids dispatched on the final, successful iteration
	RetryCounts    map[string]int
	DebugReports   []graph.DebugReport // one per task that failed on this call
}

// Scheduler dispatches ready tasks to a Subagent pool in parallel until the
// list is complete or no forward progress is possible. It is stateless
// across calls except for per-task retry counters, which it threads through
// the List it's given (Task.RetryCount) and returns in RetryCounts.
type Scheduler struct {
	Worker     subagent.Subagent
	MaxRetries int // 0 means DefaultMaxRetries
}

// NewScheduler returns a Scheduler with DefaultMaxRetries.
func NewScheduler(worker subagent.Subagent) *Scheduler {
	return &Scheduler{Worker: worker, MaxRetries: DefaultMaxRetries}
}

func (s *Scheduler) maxRetries() int {
	if s.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return s.MaxRetries
}

// Dispatch runs the DAG scheduler to completion or terminal deadlock:
//
//  1. If every task is completed, return.
//  2. Diagnose for a cycle or error-dependency deadlock. A cycle always
//     aborts. An error-dependency aborts only once its blockers have
//     exhausted their retry budget; otherwise the blockers are reset to
//     pending, their retry counters incremented, and the loop repeats.
//  3. Select ready tasks in list order. An empty ready set stops the loop.
//  4. Mark selected tasks in_progress, then spawn them in parallel via
//     Worker.SpawnParallel — one assignment per ready task, in list order.
//  5. Apply results: completed on success, error on failure. Repeat from 1.
func (s *Scheduler) Dispatch(ctx context.Context, l List) (DispatchResult, error) {
	retryCounts := make(map[string]int)
	for _, t := range l.Tasks {
		if t.RetryCount > 0 {
			retryCounts[t.ID] = t.RetryCount
		}
	}

	var debugReports []graph.DebugReport

	for {
		if l.AllCompleted() {
			return DispatchResult{Tasks: l, ShouldContinue: true, Diagnostic: Diagnostic{Kind: DiagnosticNone}, RetryCounts: retryCounts, DebugReports: debugReports}, nil
		}

		diag := Diagnose(l)
		switch diag.Kind {
		case DiagnosticCycle:
			return DispatchResult{Tasks: l, ShouldContinue: false, Diagnostic: diag, RetryCounts: retryCounts, DebugReports: debugReports}, nil
		case DiagnosticErrorDependency:
			exhausted := true
			for _, blockerID := range diag.BlockingErrorIDs {
				if retryCounts[blockerID] < s.maxRetries() {
					exhausted = false
					break
				}
			}
			if exhausted {
				return DispatchResult{Tasks: l, ShouldContinue: false, Diagnostic: diag, RetryCounts: retryCounts, DebugReports: debugReports}, nil
			}
			for _, blockerID := range diag.BlockingErrorIDs {
				l = l.WithStatus(blockerID, StatusPending)
				retryCounts[blockerID]++
			}
			continue
		}

		ready := l.Ready()
		if len(ready) == 0 {
			return DispatchResult{Tasks: l, ShouldContinue: true, Diagnostic: Diagnostic{Kind: DiagnosticNone}, RetryCounts: retryCounts, DebugReports: debugReports}, nil
		}

		for _, t := range ready {
			l = l.WithStatus(t.ID, StatusInProgress)
		}

		assignments := make([]subagent.Assignment, len(ready))
		for i, t := range ready {
			assignments[i] = subagent.Assignment{
				TaskID:         t.ID,
				Content:        t.Content,
				ActiveForm:     t.ActiveForm,
				BlockerContext: blockerContext(l, t),
			}
		}

		results, err := s.Worker.SpawnParallel(ctx, assignments)
		if err != nil {
			return DispatchResult{Tasks: l, ShouldContinue: false, RetryCounts: retryCounts, DebugReports: debugReports}, fmt.Errorf("task: spawnParallel: %w", err)
		}
		if len(results) != len(assignments) {
			return DispatchResult{Tasks: l, ShouldContinue: false, RetryCounts: retryCounts, DebugReports: debugReports}, fmt.Errorf("task: spawnParallel returned %d results for %d assignments", len(results), len(assignments))
		}

		dispatched := make([]string, len(ready))
		for i, t := range ready {
			dispatched[i] = t.ID
			if results[i].Success {
				l = l.WithStatus(t.ID, StatusCompleted)
			} else {
				l = l.WithStatus(t.ID, StatusError)
				debugReports = append(debugReports, newTaskFailureReport(t, results[i].Error))
			}
		}

		if l.AllCompleted() {
			return DispatchResult{Tasks: l, ShouldContinue: true, Diagnostic: Diagnostic{Kind: DiagnosticNone}, DispatchedIDs: dispatched, RetryCounts: retryCounts, DebugReports: debugReports}, nil
		}
	}
}

// newTaskFailureReport wraps a task's failure with a captured stack trace
// via pkg/errors, so a later inspection of DebugReports can point at where
// the error actually originated rather than just Dispatch's own call site.
func newTaskFailureReport(t Task, errMsg string) graph.DebugReport {
	wrapped := errors.New(errMsg)
	return graph.DebugReport{
		ErrorSummary: fmt.Sprintf("%s: %s", t.ID, errMsg),
		StackTrace:   fmt.Sprintf("%+v", wrapped),
		NodeID:       t.ID,
		GeneratedAt:  time.Now(),
	}
}

func blockerContext(l List, t Task) []string {
	if len(t.BlockedBy) == 0 {
		return nil
	}
	ctx := make([]string, 0, len(t.BlockedBy))
	for _, b := range t.BlockedBy {
		if blocker, ok := l.ByID(b); ok {
			ctx = append(ctx, fmt.Sprintf("%s: %s", blocker.ID, blocker.Content))
		}
	}
	return ctx
}
