package subagent

import (
	"context"
	"fmt"

	"github.com/flowforge/agentgraph/graph/model"
)

// ChatModelSubagent adapts any graph/model.ChatModel (Anthropic, OpenAI,
// Google, or a mock) into a Subagent, so example workflows can dispatch DAG
// tasks straight to a chat model without standing up an HTTP worker pool.
// No tools are offered to the model: a chat-model worker only ever produces
// text output, mapped onto Result.Output.
type ChatModelSubagent struct {
	Model        model.ChatModel
	SystemPrompt string
}

// NewChatModelSubagent builds a worker around an existing ChatModel client.
func NewChatModelSubagent(m model.ChatModel) *ChatModelSubagent {
	return &ChatModelSubagent{
		Model: m,
		SystemPrompt: "You are a worker agent. Complete the assigned task and report the " +
			"result plainly; do not ask clarifying questions.",
	}
}

// Spawn sends one assignment through the chat model and maps the reply onto
// a Result. An empty ChatOut.Text is treated as an in-band failure, not a
// transport error, since the model responded successfully but produced
// nothing usable.
func (c *ChatModelSubagent) Spawn(ctx context.Context, assignment Assignment) (Result, error) {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: c.SystemPrompt},
		{Role: model.RoleUser, Content: assignmentPrompt(assignment)},
	}
	out, err := c.Model.Chat(ctx, messages, nil)
	if err != nil {
		return Result{}, fmt.Errorf("subagent: chat model: %w", err)
	}
	if out.Text == "" {
		return Result{Success: false, Error: "chat model returned no text"}, nil
	}
	return Result{Success: true, Output: out.Text}, nil
}

// SpawnParallel runs assignments through the model one at a time: most
// ChatModel implementations (notably rate-limited provider clients) are not
// safe to hammer concurrently without their own pooling, so this favors
// correctness over throughput. Workflows that need real concurrency should
// use HTTPSubagent or OpenAISubagent instead.
func (c *ChatModelSubagent) SpawnParallel(ctx context.Context, assignments []Assignment) ([]Result, error) {
	results := make([]Result, len(assignments))
	for i, a := range assignments {
		result, err := c.Spawn(ctx, a)
		if err != nil {
			return nil, err
		}
		results[i] = result
	}
	return results, nil
}
