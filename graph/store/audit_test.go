package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/agentgraph/graph"
)

type auditState struct {
	meta  graph.Meta
	Count int
}

func (s auditState) Meta() graph.Meta            { return s.meta }
func (s auditState) WithMeta(m graph.Meta) auditState { s.meta = m; return s }

func TestAuditMirror_MirrorThenLatestState(t *testing.T) {
	mirror := NewAuditMirror[auditState](NewMemStore[auditState]())
	ctx := context.Background()

	snap := graph.ExecutionSnapshot[auditState]{
		ExecutionID:        "exec-1",
		State:              auditState{Count: 3},
		CurrentNodeID:      "review",
		NodeExecutionCount: 2,
		UpdatedAt:          time.Now(),
	}
	require.NoError(t, mirror.Mirror(ctx, snap))

	state, step, err := mirror.LatestState(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, 3, state.Count)
	assert.Equal(t, 2, step)
}

func TestAuditMirror_LatestState_UnknownExecution(t *testing.T) {
	mirror := NewAuditMirror[auditState](NewMemStore[auditState]())
	_, _, err := mirror.LatestState(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
