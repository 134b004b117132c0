package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/agentgraph/graph"
)

func TestBoltCheckpointer_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	cp, err := NewBoltCheckpointer[memState](path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cp.Close() })

	ctx := context.Background()
	snap := graph.ExecutionSnapshot[memState]{ExecutionID: "exec-1", State: memState{X: 7}}

	require.NoError(t, cp.Save(ctx, "exec-1", snap, "milestone"))

	loaded, found, err := cp.Load(ctx, "exec-1", "milestone")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, loaded.State.X)

	latest, found, err := cp.Load(ctx, "exec-1", "")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, latest.State.X)

	labels, err := cp.List(ctx, "exec-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"latest", "milestone"}, labels)
}

func TestBoltCheckpointer_DeleteLabelVsWholeExecution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	cp, err := NewBoltCheckpointer[memState](path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cp.Close() })

	ctx := context.Background()
	snap := graph.ExecutionSnapshot[memState]{ExecutionID: "exec-1", State: memState{X: 1}}
	require.NoError(t, cp.Save(ctx, "exec-1", snap, "a"))

	require.NoError(t, cp.Delete(ctx, "exec-1", "a"))
	_, found, err := cp.Load(ctx, "exec-1", "a")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = cp.Load(ctx, "exec-1", "latest")
	require.NoError(t, err)
	assert.True(t, found, "deleting one label must not remove latest")

	require.NoError(t, cp.Delete(ctx, "exec-1", ""))
	_, found, err = cp.Load(ctx, "exec-1", "latest")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltCheckpointer_LoadMissingExecution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	cp, err := NewBoltCheckpointer[memState](path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cp.Close() })

	_, found, err := cp.Load(context.Background(), "missing", "")
	require.NoError(t, err)
	assert.False(t, found)
}
