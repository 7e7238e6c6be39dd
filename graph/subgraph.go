package graph

import (
	"context"
	"fmt"
)

// Mapper converts state between a parent graph and a subgraph.
type Mapper func(State) State

// Subgraph returns a node function that runs g as a single node of another
// graph. in selects the subgraph input from the parent state and out turns
// the subgraph's final state into the parent update; a nil mapper passes the
// state through unchanged. The subgraph run inherits the parent's context,
// including its cancellation and run id.
func Subgraph(g *Graph, in, out Mapper) NodeFunc {
	return func(ctx context.Context, state State) (State, error) {
		input := state
		if in != nil {
			input = in(state)
		}

		cfg := &Config{RunID: RunIDFromContext(ctx)}
		result, err := g.InvokeWithConfig(ctx, input, cfg)
		if err != nil {
			return nil, fmt.Errorf("subgraph: %w", err)
		}

		if out != nil {
			return out(result), nil
		}
		return result, nil
	}
}

// Select returns a Mapper keeping only the named fields, renamed through
// fields as from -> to.
func Select(fields map[string]string) Mapper {
	return func(s State) State {
		out := make(State, len(fields))
		for from, to := range fields {
			if v, ok := s[from]; ok {
				out[to] = v
			}
		}
		return out
	}
}
