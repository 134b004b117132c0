package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Checkpointer abstracts save/load/list/delete of ExecutionSnapshots keyed
// by executionId plus an optional label. Implementations live under
// graph/checkpoint; the scheduler depends on this interface only, never the
// reverse, so a checkpointer never references the runner that drives it.
//
// Required semantics: Save is atomic — a partial failure never leaves a
// corrupt snapshot visible to Load. Label "latest" always names the most
// recently saved snapshot; Load with label "" is equivalent to "latest".
type Checkpointer[S Stateful[S]] interface {
	Save(ctx context.Context, executionID string, snap ExecutionSnapshot[S], label string) error
	Load(ctx context.Context, executionID string, label string) (ExecutionSnapshot[S], bool, error)
	List(ctx context.Context, executionID string) ([]string, error)
	Delete(ctx context.Context, executionID string, label string) error
}

// snapshotDigest hashes a snapshot's execution id, current node,
// visited-node path and state into a stable "sha256:<hex>" digest, so two
// snapshots can be compared for a repeat save. None of the checkpointers
// under graph/checkpoint calls it.
func snapshotDigest[S Stateful[S]](snap ExecutionSnapshot[S]) (string, error) {
	h := sha256.New()
	h.Write([]byte(snap.ExecutionID))
	h.Write([]byte(snap.CurrentNodeID))
	for _, n := range snap.VisitedNodes {
		h.Write([]byte(n))
	}
	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		return "", err
	}
	h.Write(stateJSON)
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
