package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/agentgraph/graph/emit"
)

func incrementNode(route Next) Node[testState] {
	return NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: testState{Counter: s.Counter + 1}, Route: route}
	})
}

func TestRunner_RunsLinearGraphToCompletion(t *testing.T) {
	g, err := NewBuilder[testState]().
		Start("a", incrementNode(Next{})).
		Then("b", incrementNode(Next{})).
		Then("c", incrementNode(Next{})).
		End().
		Compile()
	require.NoError(t, err)

	runner := NewRunner[testState](g, nil, nil)
	snap, err := runner.Run(context.Background(), "exec-1", testState{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 3, snap.State.Counter)
	assert.Equal(t, []string{"a", "b", "c"}, snap.VisitedNodes)
}

func TestRunner_BranchOnPredicate_OnlyTakenBranchVisited(t *testing.T) {
	g, err := NewBuilder[testState]().
		Start("a", incrementNode(Next{})).
		If(func(s testState) bool { return s.Counter > 0 }).
		Then("x", incrementNode(Next{})).
		Else().
		Then("y", incrementNode(Next{})).
		EndIf().
		End().
		Compile()
	require.NoError(t, err)

	runner := NewRunner[testState](g, nil, nil)
	snap, err := runner.Run(context.Background(), "exec-1", testState{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, []string{"a", "x"}, snap.VisitedNodes)
	assert.NotContains(t, snap.VisitedNodes, "y")
}

func TestRunner_MaxStepsExceeded(t *testing.T) {
	g, err := NewBuilder[testState]().
		Start("a", incrementNode(Next{To: "a"})).
		End().
		Compile()
	require.NoError(t, err)

	runner := NewRunner[testState](g, nil, nil)
	snap, err := runner.Run(context.Background(), "exec-1", testState{}, WithMaxSteps(5))
	require.ErrorIs(t, err, ErrMaxStepsExceeded)
	assert.Equal(t, StatusFailed, snap.Status)
}

func TestRunner_RetriesThenSucceeds(t *testing.T) {
	var calls int
	flaky := NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		calls++
		if calls < 3 {
			return NodeResult[testState]{Err: errors.New("transient")}
		}
		return NodeResult[testState]{Delta: testState{Counter: s.Counter + 1}}
	})

	b := NewBuilder[testState]().Start("a", flaky)
	b.nodes["a"] = NodeDef[testState]{ID: "a", Kind: NodeKindAgent, Node: flaky, Retry: &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffMultiplier: 1}}
	g, err := b.End().Compile()
	require.NoError(t, err)

	buffered := emit.NewBufferedEmitter()
	runner := NewRunner[testState](g, nil, buffered)
	snap, err := runner.Run(context.Background(), "exec-1", testState{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 3, calls)
	assert.Empty(t, snap.Errors)

	history := buffered.GetHistory("exec-1")
	var retried, completed int
	for _, e := range history {
		switch e.Msg {
		case emit.MsgNodeRetried:
			retried++
		case emit.MsgNodeCompleted:
			completed++
		}
	}
	assert.Equal(t, 2, retried)
	assert.Equal(t, 1, completed)
}

func TestRunner_ParallelFanOutMergesAllChildren(t *testing.T) {
	child := func(n int) Node[testState] {
		return NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
			return NodeResult[testState]{Delta: testState{DebugReports: []string{"child"}}}
		})
	}

	g, err := NewBuilder[testState]().
		Start("fanout", NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
			return NodeResult[testState]{Route: FanOut("c1", "c2", "c3")}
		})).
		ThenKind("c1", child(1), NodeKindParallel).
		ThenKind("c2", child(2), NodeKindParallel).
		ThenKind("c3", child(3), NodeKindParallel).
		End().
		Compile()
	require.NoError(t, err)

	runner := NewRunner[testState](g, nil, nil)
	snap, err := runner.Run(context.Background(), "exec-1", testState{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Len(t, snap.State.DebugReports, 3)
}
