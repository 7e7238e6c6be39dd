package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config carries per-invocation settings.
type Config struct {
	// RunID names the run in logs and spans; a UUID is generated when empty
	RunID string
	// MaxSteps overrides the graph's step limit for this run
	MaxSteps int
}

// run is one execution of a Graph. It is discarded when Invoke returns.
type run struct {
	g        *Graph
	id       string
	maxSteps int
	state    State
	frontier []string
	// history holds, per pending node, the nodes that ran on the way to it.
	history map[string]map[string]bool
}

// Invoke executes the graph from its entry point with the given input state
// and returns the final merged state.
func (g *Graph) Invoke(ctx context.Context, input State) (State, error) {
	return g.InvokeWithConfig(ctx, input, nil)
}

// InvokeWithConfig executes the graph with per-run settings. On failure the
// run's state is discarded and only the error is returned.
func (g *Graph) InvokeWithConfig(ctx context.Context, input State, cfg *Config) (State, error) {
	r := &run{g: g, maxSteps: g.maxSteps}
	if cfg != nil {
		r.id = cfg.RunID
		if cfg.MaxSteps > 0 {
			r.maxSteps = cfg.MaxSteps
		}
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	ctx = WithRunID(ctx, r.id)

	var graphSpan *TraceSpan
	if g.tracer != nil {
		graphSpan = g.tracer.StartSpan(ctx, TraceEventGraphStart, "graph")
		ctx = ContextWithSpan(ctx, graphSpan)
	}

	state, err := r.execute(ctx, input)

	if g.tracer != nil {
		g.tracer.EndSpan(ctx, graphSpan, state, err)
	}
	if err != nil {
		g.logger.Error("run %s failed: %v", r.id, err)
		return nil, err
	}
	g.logger.Info("run %s finished", r.id)
	return state, nil
}

func (r *run) execute(ctx context.Context, input State) (State, error) {
	g := r.g
	state, err := g.schema.initialize(input)
	if err != nil {
		return nil, err
	}
	r.state = state
	g.logger.Info("run %s started", r.id)

	r.frontier, err = r.advance(ctx, START)
	if err != nil {
		return nil, err
	}
	r.history = make(map[string]map[string]bool)
	arrive(r.history, r.frontier, nil)

	for step := 1; ; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates := r.pending()
		if len(candidates) == 0 {
			return r.state, nil
		}
		if step > r.maxSteps {
			return nil, &StepLimitError{Limit: r.maxSteps, Pending: candidates}
		}

		runnable, deferred := g.schedule(candidates, r.history)
		stepCtx := withStep(ctx, step)
		g.logger.Debug("run %s step %d: running %v, waiting %v", r.id, step, runnable, deferred)

		updates, err := r.runStep(stepCtx, runnable)
		if err != nil {
			return nil, err
		}

		// Merge every update before any routing decision is made.
		for i, name := range runnable {
			merged, err := g.schema.apply(r.state, updates[i])
			if err != nil {
				return nil, &NodeExecutionError{Node: name, Cause: err}
			}
			r.state = merged
		}

		next := deferred
		history := make(map[string]map[string]bool, len(r.history))
		for _, name := range deferred {
			history[name] = r.history[name]
		}
		for _, name := range runnable {
			dests, err := r.advance(stepCtx, name)
			if err != nil {
				return nil, err
			}
			next = append(next, dests...)

			ran := maps.Clone(r.history[name])
			if ran == nil {
				ran = make(map[string]bool)
			}
			ran[name] = true
			arrive(history, dests, ran)
		}
		r.frontier = next
		r.history = history
	}
}

// arrive merges the run history of an activating node into each destination.
func arrive(history map[string]map[string]bool, dests []string, ran map[string]bool) {
	for _, to := range dests {
		if to == END {
			continue
		}
		h, ok := history[to]
		if !ok {
			h = make(map[string]bool, len(ran))
			history[to] = h
		}
		maps.Copy(h, ran)
	}
}

// pending returns the distinct non-terminal frontier nodes in registration order.
func (r *run) pending() []string {
	seen := make(map[string]bool, len(r.frontier))
	out := make([]string, 0, len(r.frontier))
	for _, name := range r.frontier {
		if name == END || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	slices.SortFunc(out, func(a, b string) int {
		return r.g.nodes[a].order - r.g.nodes[b].order
	})
	return out
}

// schedule splits candidates into nodes that run now and nodes that wait.
// A node waits while another candidate can still reach it, so a join runs
// once after all its branches have arrived. When the two reach each other
// through a loop, the node only waits if the other candidate can get to it
// without passing through nodes already on its own path in this run.
func (g *Graph) schedule(candidates []string, history map[string]map[string]bool) (runnable, deferred []string) {
	for _, n := range candidates {
		blocked := false
		for _, p := range candidates {
			if p == n || !g.reach[p][n] {
				continue
			}
			if !g.reach[n][p] || g.reachesAvoiding(p, n, history[n]) {
				blocked = true
				break
			}
		}
		if blocked {
			deferred = append(deferred, n)
		} else {
			runnable = append(runnable, n)
		}
	}
	if len(runnable) == 0 {
		// Candidates waiting on each other all run rather than stall.
		return candidates, nil
	}
	return runnable, deferred
}

// reachesAvoiding reports whether to is reachable from from without passing
// through any node in avoid.
func (g *Graph) reachesAvoiding(from, to string, avoid map[string]bool) bool {
	seen := make(map[string]bool)
	stack := g.targets(from)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if n == END || seen[n] || avoid[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.targets(n)...)
	}
	return false
}

// advance returns the destinations of name against the current merged state.
func (r *run) advance(ctx context.Context, name string) ([]string, error) {
	g := r.g
	dests := append([]string(nil), g.successors[name]...)

	if c, ok := g.conditional[name]; ok {
		key, err := r.decide(ctx, c)
		if err != nil {
			return nil, &NodeExecutionError{Node: name, Cause: err}
		}
		to, ok := c.Routes[key]
		if !ok {
			return nil, &RoutingKeyError{Node: name, Key: key}
		}
		g.logger.Debug("run %s: %s routed %q to %s", r.id, name, key, to)
		dests = append(dests, to)
	}

	if g.tracer != nil {
		for _, to := range dests {
			g.tracer.TraceEdgeTraversal(ctx, name, to)
		}
	}
	return dests, nil
}

func (r *run) decide(ctx context.Context, c ConditionalEdge) (key string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in routing function: %v", p)
		}
	}()
	return c.Decide(ctx, r.state.Clone()), nil
}

// runStep executes the given nodes against the current state and returns
// their updates indexed like names. The first failure in registration order
// is returned.
func (r *run) runStep(ctx context.Context, names []string) ([]State, error) {
	g := r.g
	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make([]State, len(names))
	errs := make([]error, len(names))

	var eg errgroup.Group
	if g.maxConcurrency > 0 {
		eg.SetLimit(g.maxConcurrency)
	}
	for i, name := range names {
		eg.Go(func() error {
			update, err := r.runNode(stepCtx, g.nodes[name])
			if err != nil {
				errs[i] = err
				cancel()
				return nil
			}
			updates[i] = update
			return nil
		})
	}
	_ = eg.Wait()

	var canceled error
	for i, err := range errs {
		if err == nil {
			continue
		}
		// Siblings stopped by our own cancel are not the reason the step failed.
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			if canceled == nil {
				canceled = &NodeExecutionError{Node: names[i], Cause: err}
			}
			continue
		}
		return nil, &NodeExecutionError{Node: names[i], Cause: err}
	}
	if canceled != nil {
		return nil, canceled
	}
	return updates, nil
}

func (r *run) runNode(ctx context.Context, node *Node) (update State, err error) {
	g := r.g
	input := r.state.Clone()

	var span *TraceSpan
	if g.tracer != nil {
		span = g.tracer.StartSpan(ctx, TraceEventNodeStart, node.Name)
		ctx = ContextWithSpan(ctx, span)
	}
	for _, l := range g.listeners {
		l.OnNodeEvent(ctx, NodeEventStart, node.Name, input, nil)
	}

	defer func() {
		if p := recover(); p != nil {
			update, err = nil, fmt.Errorf("panic: %v", p)
		}
		if g.tracer != nil {
			g.tracer.EndSpan(ctx, span, update, err)
		}
		event := NodeEventComplete
		if err != nil {
			event = NodeEventError
		}
		for _, l := range g.listeners {
			l.OnNodeEvent(ctx, event, node.Name, update, err)
		}
	}()

	nodeCtx := ctx
	if node.Timeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(ctx, node.Timeout)
		defer cancel()
	}
	update, err = node.Function(nodeCtx, input)
	if err == nil && node.Timeout > 0 && nodeCtx.Err() != nil {
		err = nodeCtx.Err()
	}
	if err != nil {
		return nil, err
	}
	if update == nil {
		update = State{}
	}
	return update, nil
}
