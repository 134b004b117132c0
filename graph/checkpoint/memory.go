// Package checkpoint provides Checkpointer implementations: an in-memory
// variant for tests and a filesystem variant matching the session
// directory layout (session.json, checkpoints/<label>.json, logs/*.jsonl,
// progress.txt).
package checkpoint

import (
	"context"
	"sync"

	"github.com/flowforge/agentgraph/graph"
)

// MemoryCheckpointer stores snapshots in process memory, keyed by
// executionID then label. "latest" is updated on every Save. Safe for
// concurrent use: one mutex per MemoryCheckpointer serializes every call,
// for all executionIDs alike.
type MemoryCheckpointer[S graph.Stateful[S]] struct {
	mu    sync.Mutex
	store map[string]map[string]graph.ExecutionSnapshot[S]
}

// NewMemoryCheckpointer returns an empty MemoryCheckpointer.
func NewMemoryCheckpointer[S graph.Stateful[S]]() *MemoryCheckpointer[S] {
	return &MemoryCheckpointer[S]{store: make(map[string]map[string]graph.ExecutionSnapshot[S])}
}

func (m *MemoryCheckpointer[S]) Save(_ context.Context, executionID string, snap graph.ExecutionSnapshot[S], label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.store[executionID]
	if !ok {
		byLabel = make(map[string]graph.ExecutionSnapshot[S])
		m.store[executionID] = byLabel
	}
	if label != "" && label != "latest" {
		byLabel[label] = snap
	}
	byLabel["latest"] = snap
	return nil
}

func (m *MemoryCheckpointer[S]) Load(_ context.Context, executionID string, label string) (graph.ExecutionSnapshot[S], bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.store[executionID]
	if !ok {
		var zero graph.ExecutionSnapshot[S]
		return zero, false, nil
	}
	if label == "" {
		label = "latest"
	}
	snap, ok := byLabel[label]
	return snap, ok, nil
}

func (m *MemoryCheckpointer[S]) List(_ context.Context, executionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.store[executionID]
	if !ok {
		return nil, nil
	}
	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	return labels, nil
}

func (m *MemoryCheckpointer[S]) Delete(_ context.Context, executionID string, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.store[executionID]
	if !ok {
		return nil
	}
	if label == "" {
		delete(m.store, executionID)
		return nil
	}
	delete(byLabel, label)
	return nil
}
