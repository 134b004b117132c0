package subagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSubagent_Spawn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var a Assignment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		json.NewEncoder(w).Encode(Result{Success: true, Output: "handled " + a.TaskID})
	}))
	defer server.Close()

	worker := NewHTTPSubagent(server.URL, 0)
	result, err := worker.Spawn(context.Background(), Assignment{TaskID: "#1", Content: "do it"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "handled #1", result.Output)
}

func TestHTTPSubagent_SpawnParallel_PreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var a Assignment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		json.NewEncoder(w).Encode(Result{Success: true, Output: a.TaskID})
	}))
	defer server.Close()

	worker := NewHTTPSubagent(server.URL, 100)
	assignments := []Assignment{
		{TaskID: "#1"}, {TaskID: "#2"}, {TaskID: "#3"},
	}
	results, err := worker.SpawnParallel(context.Background(), assignments)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "#1", results[0].Output)
	assert.Equal(t, "#2", results[1].Output)
	assert.Equal(t, "#3", results[2].Output)
}

func TestHTTPSubagent_WorkerErrorStatusFailsBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	worker := NewHTTPSubagent(server.URL, 0)
	_, err := worker.SpawnParallel(context.Background(), []Assignment{{TaskID: "#1"}})
	assert.Error(t, err)
}

func TestNewHTTPSubagent_NoLimiterWhenRateZero(t *testing.T) {
	worker := NewHTTPSubagent("http://example.invalid", 0)
	assert.Nil(t, worker.Limiter)
}
