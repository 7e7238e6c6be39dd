package graph

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/graphflow/graphflow/log"
)

const (
	// START is the virtual source node; edges from START mark entry points.
	START = "START"

	// END is the terminal marker. A branch routed to END contributes no
	// further transitions.
	END = "END"
)

// DefaultMaxSteps bounds the number of supersteps of a single run.
const DefaultMaxSteps = 25

// NodeFunc is the node function contract: read the state handed in and return
// a partial update holding only the fields to merge.
type NodeFunc func(ctx context.Context, state State) (State, error)

// RouteFunc is a decision function returning a routing key.
type RouteFunc func(ctx context.Context, state State) string

// Node represents a node in the graph.
type Node struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is the function associated with the node.
	Function NodeFunc

	// Timeout bounds a single execution of the node when positive.
	Timeout time.Duration

	order int
}

// Edge represents an unconditional edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}

// ConditionalEdge routes from one node to the destination selected by Decide.
type ConditionalEdge struct {
	From   string
	Decide RouteFunc
	// Routes maps each routing key to a node name or END
	Routes map[string]string
}

// Keys returns the routing keys in sorted order.
func (c ConditionalEdge) Keys() []string {
	return sortedKeys(c.Routes)
}

// Graph is a compiled, immutable graph. It is safe for concurrent Invoke calls.
type Graph struct {
	nodes       map[string]*Node
	order       []string
	edges       []Edge
	successors  map[string][]string
	conditional map[string]ConditionalEdge
	reach       map[string]map[string]bool
	schema      *Schema
	warnings    []string

	logger         log.Logger
	tracer         *Tracer
	listeners      []NodeListener
	maxConcurrency int
	maxSteps       int
}

// Option configures the runtime behaviour of a compiled graph.
type Option func(*Graph)

// WithLogger injects the logger used for run and step logging.
func WithLogger(l log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTracer attaches a tracer whose hooks receive graph, node and edge spans.
func WithTracer(t *Tracer) Option {
	return func(g *Graph) {
		g.tracer = t
	}
}

// WithListeners registers node listeners notified for every node of every run.
func WithListeners(ls ...NodeListener) Option {
	return func(g *Graph) {
		g.listeners = append(g.listeners, ls...)
	}
}

// WithMaxConcurrency bounds how many nodes of one superstep run at once.
// Zero or less means unbounded; 1 runs a superstep sequentially.
func WithMaxConcurrency(n int) Option {
	return func(g *Graph) {
		g.maxConcurrency = n
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxSteps = n
		}
	}
}

// Nodes returns the registered nodes in registration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, *g.nodes[name])
	}
	return out
}

// Edges returns the unconditional edges in registration order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// ConditionalEdges returns the conditional edges ordered by source registration.
func (g *Graph) ConditionalEdges() []ConditionalEdge {
	out := make([]ConditionalEdge, 0, len(g.conditional))
	if c, ok := g.conditional[START]; ok {
		out = append(out, c)
	}
	for _, name := range g.order {
		if c, ok := g.conditional[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Schema returns the state schema, nil when the graph is schemaless.
func (g *Graph) Schema() *Schema {
	return g.schema
}

// Warnings returns the non-fatal findings of Compile, such as orphan nodes.
func (g *Graph) Warnings() []string {
	return slices.Clone(g.warnings)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
