package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/agentgraph/graph"
)

type memState struct {
	meta graph.Meta
	X    int
}

func (s memState) Meta() graph.Meta            { return s.meta }
func (s memState) WithMeta(m graph.Meta) memState { s.meta = m; return s }

func TestMemoryCheckpointer_SaveLoadLatest(t *testing.T) {
	cp := NewMemoryCheckpointer[memState]()
	ctx := context.Background()

	snap := graph.ExecutionSnapshot[memState]{ExecutionID: "exec-1", State: memState{X: 1}}
	require.NoError(t, cp.Save(ctx, "exec-1", snap, ""))

	loaded, ok, err := cp.Load(ctx, "exec-1", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, loaded.State.X)
}

func TestMemoryCheckpointer_LabeledAndLatestBothUpdate(t *testing.T) {
	cp := NewMemoryCheckpointer[memState]()
	ctx := context.Background()

	require.NoError(t, cp.Save(ctx, "exec-1", graph.ExecutionSnapshot[memState]{State: memState{X: 1}}, "step-1"))
	require.NoError(t, cp.Save(ctx, "exec-1", graph.ExecutionSnapshot[memState]{State: memState{X: 2}}, "step-2"))

	step1, ok, _ := cp.Load(ctx, "exec-1", "step-1")
	require.True(t, ok)
	assert.Equal(t, 1, step1.State.X)

	latest, ok, _ := cp.Load(ctx, "exec-1", "latest")
	require.True(t, ok)
	assert.Equal(t, 2, latest.State.X, "latest always reflects the most recent Save regardless of label")
}

func TestMemoryCheckpointer_DeleteLabelVsWholeExecution(t *testing.T) {
	cp := NewMemoryCheckpointer[memState]()
	ctx := context.Background()
	require.NoError(t, cp.Save(ctx, "exec-1", graph.ExecutionSnapshot[memState]{}, "a"))

	require.NoError(t, cp.Delete(ctx, "exec-1", "a"))
	_, ok, _ := cp.Load(ctx, "exec-1", "a")
	assert.False(t, ok)
	_, ok, _ = cp.Load(ctx, "exec-1", "latest")
	assert.True(t, ok, "deleting one label leaves others, including latest, intact")

	require.NoError(t, cp.Delete(ctx, "exec-1", ""))
	_, ok, _ = cp.Load(ctx, "exec-1", "latest")
	assert.False(t, ok, "an empty label deletes the whole execution")
}

func TestMemoryCheckpointer_LoadMissingExecution(t *testing.T) {
	cp := NewMemoryCheckpointer[memState]()
	_, ok, err := cp.Load(context.Background(), "nonexistent", "")
	require.NoError(t, err)
	assert.False(t, ok)
}
