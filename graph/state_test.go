package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testState struct {
	meta         Meta
	Counter      int
	DebugReports []string          `workflow:"concat"`
	Scratch      map[string]string `workflow:"merge"`
}

func (s testState) Meta() Meta            { return s.meta }
func (s testState) WithMeta(m Meta) testState { s.meta = m; return s }

func TestMergeState_OverwriteByDefault(t *testing.T) {
	current := testState{Counter: 1}
	delta := testState{Counter: 2}

	merged := MergeState[testState](current, delta, time.Now())
	assert.Equal(t, 2, merged.Counter)
}

func TestMergeState_ZeroDeltaLeavesFieldUnchanged(t *testing.T) {
	current := testState{Counter: 5}
	delta := testState{}

	merged := MergeState[testState](current, delta, time.Now())
	assert.Equal(t, 5, merged.Counter, "a field delta does not mention keeps the current value")
}

func TestMergeState_ConcatField(t *testing.T) {
	current := testState{DebugReports: []string{"a"}}
	delta := testState{DebugReports: []string{"b", "c"}}

	merged := MergeState[testState](current, delta, time.Now())
	assert.Equal(t, []string{"a", "b", "c"}, merged.DebugReports)
}

func TestMergeState_MergeMapField(t *testing.T) {
	current := testState{Scratch: map[string]string{"k1": "v1"}}
	delta := testState{Scratch: map[string]string{"k2": "v2"}}

	merged := MergeState[testState](current, delta, time.Now())
	assert.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, merged.Scratch)
}

func TestMergeState_OutputsUnionAndLastUpdated(t *testing.T) {
	now := time.Now()
	current := testState{meta: Meta{ExecutionID: "exec-1", Outputs: map[string]any{"node-a": "out-a"}}}
	delta := testState{meta: Meta{Outputs: map[string]any{"node-b": "out-b"}}}

	merged := MergeState[testState](current, delta, now)
	assert.Equal(t, "exec-1", merged.Meta().ExecutionID)
	assert.Equal(t, now, merged.Meta().LastUpdated)
	assert.Equal(t, map[string]any{"node-a": "out-a", "node-b": "out-b"}, merged.Meta().Outputs)
}

func TestMergeParallelDeltas_FirstTargetWinsOnOverwrite(t *testing.T) {
	base := testState{Counter: 0}
	deltas := []testState{
		{Counter: 10},
		{Counter: 20},
	}

	merged := MergeParallelDeltas[testState](base, deltas)
	assert.Equal(t, 10, merged.Counter, "first child to set a non-zero value wins")
}

func TestMergeParallelDeltas_ConcatAppendsEveryChildInOrder(t *testing.T) {
	base := testState{DebugReports: []string{"base"}}
	deltas := []testState{
		{DebugReports: []string{"child1"}},
		{DebugReports: []string{"child2a", "child2b"}},
	}

	merged := MergeParallelDeltas[testState](base, deltas)
	assert.Equal(t, []string{"base", "child1", "child2a", "child2b"}, merged.DebugReports)
}

func TestMergeParallelDeltas_MergeMapFirstSeenKeyWins(t *testing.T) {
	base := testState{}
	deltas := []testState{
		{Scratch: map[string]string{"k": "from-child-1"}},
		{Scratch: map[string]string{"k": "from-child-2", "other": "x"}},
	}

	merged := MergeParallelDeltas[testState](base, deltas)
	assert.Equal(t, "from-child-1", merged.Scratch["k"])
	assert.Equal(t, "x", merged.Scratch["other"])
}
