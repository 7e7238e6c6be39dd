package graph

import "context"

type runIDKey struct{}

type stepKey struct{}

// WithRunID stores the id of the current run in ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the id of the run a node is executing in.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func withStep(ctx context.Context, step int) context.Context {
	return context.WithValue(ctx, stepKey{}, step)
}

// StepFromContext returns the superstep number (starting at 1) of the
// executing node, or 0 outside a run.
func StepFromContext(ctx context.Context) int {
	step, _ := ctx.Value(stepKey{}).(int)
	return step
}
