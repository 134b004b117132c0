package subagent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSubagent_SpawnParallel_PerTaskSequence(t *testing.T) {
	mock := &MockSubagent{
		ResultsByTaskID: map[string][]Result{
			"#1": {{Success: false, Error: "first try fails"}, {Success: true, Output: "ok"}},
		},
		Default: Result{Success: true, Output: "default"},
	}

	results, err := mock.SpawnParallel(context.Background(), []Assignment{
		{TaskID: "#1"}, {TaskID: "#2"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, "default", results[1].Output)

	results, err = mock.SpawnParallel(context.Background(), []Assignment{{TaskID: "#1"}})
	require.NoError(t, err)
	assert.True(t, results[0].Success, "second call for #1 consumes the next scripted result")

	assert.Len(t, mock.Calls, 3)
}
