package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/agentgraph/graph"
)

func TestFSCheckpointer_CreatesSessionLayout(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewFSCheckpointer[memState](dir)
	require.NoError(t, err)

	snap := graph.ExecutionSnapshot[memState]{ExecutionID: "exec-1", State: memState{X: 42}, Status: graph.StatusRunning}
	require.NoError(t, cp.Save(context.Background(), "exec-1", snap, "auto"))

	sessionDir := filepath.Join(dir, "exec-1")
	for _, want := range []string{"session.json", "checkpoints/auto.json", "checkpoints/latest.json", "progress.txt"} {
		_, err := os.Stat(filepath.Join(sessionDir, want))
		assert.NoError(t, err, "expected %s to exist", want)
	}
	for _, dir := range []string{"research", "logs"} {
		info, err := os.Stat(filepath.Join(sessionDir, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFSCheckpointer_LoadMissingLabel(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewFSCheckpointer[memState](dir)
	require.NoError(t, err)

	_, ok, err := cp.Load(context.Background(), "never-saved", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFSCheckpointer_DeleteWholeSession(t *testing.T) {
	dir := t.TempDir()
	cp, err := NewFSCheckpointer[memState](dir)
	require.NoError(t, err)

	require.NoError(t, cp.Save(context.Background(), "exec-1", graph.ExecutionSnapshot[memState]{}, "auto"))
	require.NoError(t, cp.Delete(context.Background(), "exec-1", ""))

	_, err = os.Stat(filepath.Join(dir, "exec-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestAtomicWriteFile_NoPartialFileOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, atomicWriteFile(path, []byte(`{"ok":true}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file after a successful write")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}
