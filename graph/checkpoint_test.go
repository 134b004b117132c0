package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDigest_StableForIdenticalSnapshot(t *testing.T) {
	snap := ExecutionSnapshot[testState]{
		ExecutionID:   "exec-1",
		CurrentNodeID: "b",
		VisitedNodes:  []string{"a"},
		State:         testState{Counter: 1},
	}

	d1, err := snapshotDigest(snap)
	require.NoError(t, err)
	d2, err := snapshotDigest(snap)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Contains(t, d1, "sha256:")
}

func TestSnapshotDigest_DiffersOnStateChange(t *testing.T) {
	base := ExecutionSnapshot[testState]{ExecutionID: "exec-1", State: testState{Counter: 1}}
	changed := base
	changed.State = testState{Counter: 2}

	d1, err := snapshotDigest(base)
	require.NoError(t, err)
	d2, err := snapshotDigest(changed)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}
