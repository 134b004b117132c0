package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionSnapshot_CloneDoesNotAliasSlices(t *testing.T) {
	original := ExecutionSnapshot[testState]{
		VisitedNodes: []string{"a"},
		Errors:       []string{"e1"},
		Signals:      []Signal{{Kind: SignalCheckpoint}},
	}

	clone := original.Clone()
	clone.VisitedNodes = append(clone.VisitedNodes, "b")
	clone.Errors = append(clone.Errors, "e2")
	clone.Signals = append(clone.Signals, Signal{Kind: SignalHumanInputRequired})

	assert.Equal(t, []string{"a"}, original.VisitedNodes)
	assert.Equal(t, []string{"e1"}, original.Errors)
	assert.Len(t, original.Signals, 1)
}
