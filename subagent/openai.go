package subagent

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

// OpenAISubagent dispatches task assignments to a chat-completion model via
// go-openai, for example workflows that want a concrete worker without
// standing up the full HTTP worker pool. The engine never imports this type
// directly; it only ever sees the Subagent interface.
type OpenAISubagent struct {
	Client       *openai.Client
	Model        string
	SystemPrompt string
}

// NewOpenAISubagent builds a worker against the given API key and model.
func NewOpenAISubagent(apiKey, model string) *OpenAISubagent {
	return &OpenAISubagent{
		Client: openai.NewClient(apiKey),
		Model:  model,
		SystemPrompt: "You are a worker agent. Complete the assigned task and report the " +
			"result plainly; do not ask clarifying questions.",
	}
}

// Spawn sends one assignment as a chat completion request and maps the
// response onto a Result. A non-2xx or transport failure from the API is
// returned as the transport error, not folded into Result.Success.
func (o *OpenAISubagent) Spawn(ctx context.Context, assignment Assignment) (Result, error) {
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: assignmentPrompt(assignment)},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("subagent: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{Success: false, Error: "openai: empty choices"}, nil
	}
	return Result{Success: true, Output: resp.Choices[0].Message.Content}, nil
}

// SpawnParallel runs one completion per assignment concurrently, preserving
// input order in the returned slice. Fails fast: the first transport error
// cancels the remaining in-flight requests via the shared errgroup context.
func (o *OpenAISubagent) SpawnParallel(ctx context.Context, assignments []Assignment) ([]Result, error) {
	results := make([]Result, len(assignments))
	group, gctx := errgroup.WithContext(ctx)
	for i, a := range assignments {
		i, a := i, a
		group.Go(func() error {
			result, err := o.Spawn(gctx, a)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func assignmentPrompt(a Assignment) string {
	prompt := a.Content
	for _, ctx := range a.BlockerContext {
		prompt += "\n\ncontext from a completed dependency: " + ctx
	}
	return prompt
}
