package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGreetingGraph(t *testing.T) *Graph {
	t.Helper()
	b := NewBuilder(NewSchema(FieldOf[string]("name"), FieldOf[string]("greeting")))
	require.NoError(t, b.AddNode("greet", func(ctx context.Context, s State) (State, error) {
		name := GetOr(s, "name", "")
		if name == "" {
			return nil, errors.New("name is required")
		}
		return State{"greeting": "Hello, " + name}, nil
	}))
	require.NoError(t, b.SetEntryPoint("greet"))
	g, err := b.Compile()
	require.NoError(t, err)
	return g
}

func TestSubgraphAsNode(t *testing.T) {
	child := newGreetingGraph(t)

	var childRunID string
	b := NewBuilder(NewSchema(FieldOf[string]("user"), FieldOf[string]("message")))
	require.NoError(t, b.AddNode("welcome", Subgraph(child,
		Select(map[string]string{"user": "name"}),
		Select(map[string]string{"greeting": "message"}),
	)))
	require.NoError(t, b.AddNode("check", func(ctx context.Context, s State) (State, error) {
		childRunID = RunIDFromContext(ctx)
		return nil, nil
	}))
	require.NoError(t, b.SetEntryPoint("welcome"))
	require.NoError(t, b.AddEdge("welcome", "check"))

	parent, err := b.Compile()
	require.NoError(t, err)

	out, err := parent.InvokeWithConfig(context.Background(), State{"user": "Wanjiru"}, &Config{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Wanjiru", out["message"])
	assert.Equal(t, "run-1", childRunID)
}

func TestSubgraphFailure(t *testing.T) {
	child := newGreetingGraph(t)

	b := NewBuilder(nil)
	require.NoError(t, b.AddNode("welcome", Subgraph(child, nil, nil)))
	require.NoError(t, b.SetEntryPoint("welcome"))
	parent, err := b.Compile()
	require.NoError(t, err)

	_, err = parent.Invoke(context.Background(), State{})
	var outer *NodeExecutionError
	require.ErrorAs(t, err, &outer)
	assert.Equal(t, "welcome", outer.Node)
	assert.ErrorContains(t, err, "subgraph")
	assert.ErrorContains(t, err, "name is required")
}

func TestSelect(t *testing.T) {
	m := Select(map[string]string{"a": "x", "missing": "y"})
	assert.Equal(t, State{"x": 1}, m(State{"a": 1, "b": 2}))
}
