package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := defaultRunConfig()
	assert.Equal(t, 0, cfg.maxSteps)
	assert.Equal(t, 30*time.Second, cfg.defaultNodeTimeout)
	assert.Equal(t, 10*time.Minute, cfg.runWallClockBudget)
	assert.True(t, cfg.autoCheckpoint)
	assert.Equal(t, "auto", cfg.checkpointLabel())
}

func TestRunOptions_Apply(t *testing.T) {
	cfg := defaultRunConfig()
	opts := []RunOption{
		WithMaxSteps(10),
		WithDefaultNodeTimeout(time.Minute),
		WithRunWallClockBudget(0),
		WithAutoCheckpoint(false),
		WithCheckpointLabel(func() string { return "custom" }),
	}
	for _, o := range opts {
		o(cfg)
	}

	assert.Equal(t, 10, cfg.maxSteps)
	assert.Equal(t, time.Minute, cfg.defaultNodeTimeout)
	assert.Equal(t, time.Duration(0), cfg.runWallClockBudget)
	assert.False(t, cfg.autoCheckpoint)
	assert.Equal(t, "custom", cfg.checkpointLabel())
}

func TestWithCancel(t *testing.T) {
	ch := make(chan struct{})
	cfg := defaultRunConfig()
	WithCancel(ch)(cfg)
	assert.NotNil(t, cfg.cancel)
}

func TestWithCancel_InterruptsRetryBackoff(t *testing.T) {
	alwaysFails := NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: s, Err: errors.New("transient")}
	})
	noop := NodeFunc[testState](func(_ context.Context, s testState) NodeResult[testState] {
		return NodeResult[testState]{Delta: s}
	})
	g, err := NewBuilder[testState]().
		Start("start", noop).
		ThenRetry("a", alwaysFails, &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute, BackoffMultiplier: 1}).
		End().
		Compile()
	require.NoError(t, err)

	cancel := make(chan struct{})
	time.AfterFunc(20*time.Millisecond, func() { close(cancel) })

	runner := NewRunner[testState](g, nil, nil)
	start := time.Now()
	_, err = runner.Run(context.Background(), "exec-1", testState{}, WithCancel(cancel))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, time.Second, "retry backoff must be interrupted by WithCancel, not wait out the full minute-long delay")
}
