package subagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAISubagent(t *testing.T, handler http.HandlerFunc) *OpenAISubagent {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAISubagent{
		Client:       openai.NewClientWithConfig(config),
		Model:        "gpt-test",
		SystemPrompt: "worker",
	}
}

func TestOpenAISubagent_Spawn_MapsCompletionToResult(t *testing.T) {
	sub := newTestOpenAISubagent(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "done"}},
			},
		})
	})

	result, err := sub.Spawn(context.Background(), Assignment{TaskID: "#1", Content: "write a file"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "done", result.Output)
}

func TestOpenAISubagent_Spawn_EmptyChoicesIsInBandFailure(t *testing.T) {
	sub := newTestOpenAISubagent(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{Choices: nil})
	})

	result, err := sub.Spawn(context.Background(), Assignment{TaskID: "#1", Content: "x"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestOpenAISubagent_SpawnParallel_PreservesOrder(t *testing.T) {
	sub := newTestOpenAISubagent(t, func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		echo := req.Messages[len(req.Messages)-1].Content
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: echo}}},
		})
	})

	assignments := []Assignment{
		{TaskID: "#1", Content: "one"},
		{TaskID: "#2", Content: "two"},
		{TaskID: "#3", Content: "three"},
	}
	results, err := sub.SpawnParallel(context.Background(), assignments)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "one", results[0].Output)
	assert.Equal(t, "two", results[1].Output)
	assert.Equal(t, "three", results[2].Output)
}
