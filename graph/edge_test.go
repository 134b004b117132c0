package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateEdges_FirstTrueWins(t *testing.T) {
	edges := []Edge[testState]{
		{To: "a", When: predicateOn(false)},
		{To: "b", When: predicateOn(true)},
		{To: "c", When: predicateOn(true)},
	}

	to, ok := evaluateEdges(edges, testState{})
	assert.True(t, ok)
	assert.Equal(t, "b", to)
}

func TestEvaluateEdges_NilPredicateIsUnconditional(t *testing.T) {
	edges := []Edge[testState]{
		{To: "fallback", When: nil},
	}
	to, ok := evaluateEdges(edges, testState{})
	assert.True(t, ok)
	assert.Equal(t, "fallback", to)
}

func TestEvaluateEdges_NoMatch(t *testing.T) {
	edges := []Edge[testState]{
		{To: "a", When: predicateOn(false)},
	}
	_, ok := evaluateEdges(edges, testState{})
	assert.False(t, ok)
}
