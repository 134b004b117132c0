package graph

import (
	"context"
	"regexp"
)

var completeWord = regexp.MustCompile(`\bCOMPLETE\b`)

// CompletionSignalNode builds a decision node for the "yolo" free-form
// completion mode: getOutput reads whatever text field on S holds the
// subagent's latest free-form response, and the node stops the run the
// first time that text contains the literal whole word COMPLETE. Any other
// output falls through with no route, letting the compiled graph's default
// edge decide what runs next.
func CompletionSignalNode[S any](getOutput func(S) string) Node[S] {
	return NodeFunc[S](func(_ context.Context, state S) NodeResult[S] {
		if completeWord.MatchString(getOutput(state)) {
			return NodeResult[S]{Route: Stop()}
		}
		return NodeResult[S]{}
	})
}
