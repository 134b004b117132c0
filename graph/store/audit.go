package store

import (
	"context"
	"fmt"

	"github.com/flowforge/agentgraph/graph"
)

// AuditMirror wraps a Store[S] and keeps it in sync with the checkpointer's
// ExecutionSnapshots, purely for SQL-based post-hoc querying (progress
// dashboards, "show me every run that ended failed last week"). It is never
// the source of truth for resume — Checkpointer is — so a write failure here
// is reported but never blocks the run that produced the snapshot.
type AuditMirror[S graph.Stateful[S]] struct {
	store Store[S]
}

// NewAuditMirror wraps an existing Store[S] (SQLite or in-memory) as
// an audit sink.
func NewAuditMirror[S graph.Stateful[S]](s Store[S]) *AuditMirror[S] {
	return &AuditMirror[S]{store: s}
}

// Mirror records one execution snapshot as a step in the run's history,
// keyed by ExecutionID and the snapshot's node-execution count (the
// scheduler increments this once per node, so it doubles as a step number).
func (m *AuditMirror[S]) Mirror(ctx context.Context, snap graph.ExecutionSnapshot[S]) error {
	if err := m.store.SaveStep(ctx, snap.ExecutionID, snap.NodeExecutionCount, snap.CurrentNodeID, snap.State); err != nil {
		return fmt.Errorf("store: mirror snapshot for %s: %w", snap.ExecutionID, err)
	}
	return nil
}

// LatestState returns the most recently mirrored state for executionID,
// along with the step (node-execution count) it was recorded at. Returns
// ErrNotFound if the execution was never mirrored.
func (m *AuditMirror[S]) LatestState(ctx context.Context, executionID string) (state S, step int, err error) {
	return m.store.LoadLatest(ctx, executionID)
}
