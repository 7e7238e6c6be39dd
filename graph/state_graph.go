package graph

import (
	"fmt"
	"maps"
	"time"

	"github.com/graphflow/graphflow/log"
)

// Builder collects nodes and transitions. Registration methods report errors
// immediately and also record them, so Compile can list every violation.
// A Builder is not safe for concurrent use.
type Builder struct {
	schema      *Schema
	nodes       map[string]*Node
	order       []string
	edges       []Edge
	conditional map[string]ConditionalEdge
	violations  []error
}

// NodeOption configures a node at registration.
type NodeOption func(*Node)

// WithDescription attaches a human readable description to a node.
func WithDescription(desc string) NodeOption {
	return func(n *Node) {
		n.Description = desc
	}
}

// WithTimeout cancels the node context after d. A node that overruns fails
// the run with a NodeExecutionError wrapping context.DeadlineExceeded.
func WithTimeout(d time.Duration) NodeOption {
	return func(n *Node) {
		n.Timeout = d
	}
}

// NewBuilder creates a builder for graphs whose state follows schema.
// A nil schema accepts any field and overwrites on update.
func NewBuilder(schema *Schema) *Builder {
	return &Builder{
		schema:      schema,
		nodes:       make(map[string]*Node),
		conditional: make(map[string]ConditionalEdge),
	}
}

func (b *Builder) fail(err error) error {
	b.violations = append(b.violations, err)
	return err
}

func (b *Builder) isSource(name string) bool {
	if name == START {
		return true
	}
	_, ok := b.nodes[name]
	return ok
}

func (b *Builder) isTarget(name string) bool {
	if name == END {
		return true
	}
	_, ok := b.nodes[name]
	return ok
}

// AddNode registers a node under a unique name.
func (b *Builder) AddNode(name string, fn NodeFunc, opts ...NodeOption) error {
	if name == "" || name == START || name == END {
		return b.fail(fmt.Errorf("%w: %q", ErrReservedName, name))
	}
	if _, ok := b.nodes[name]; ok {
		return b.fail(&DuplicateNodeError{Name: name})
	}
	if fn == nil {
		return b.fail(fmt.Errorf("node %q: %w", name, ErrNilFunction))
	}

	n := &Node{Name: name, Function: fn, order: len(b.order)}
	for _, opt := range opts {
		opt(n)
	}
	b.nodes[name] = n
	b.order = append(b.order, name)
	return nil
}

// AddEdge adds an unconditional edge. START is a valid source and END a valid
// target; any other endpoint must already be registered.
func (b *Builder) AddEdge(from, to string) error {
	desc := fmt.Sprintf("%s -> %s", from, to)
	if from == END {
		return b.fail(fmt.Errorf("edge %s: END cannot have outgoing edges", desc))
	}
	if to == START {
		return b.fail(fmt.Errorf("edge %s: START cannot be a destination", desc))
	}
	if !b.isSource(from) {
		return b.fail(&UnknownNodeError{Name: from, Edge: desc})
	}
	if !b.isTarget(to) {
		return b.fail(&UnknownNodeError{Name: to, Edge: desc})
	}
	for _, e := range b.edges {
		if e.From == from && e.To == to {
			return nil
		}
	}
	b.edges = append(b.edges, Edge{From: from, To: to})
	return nil
}

// SetEntryPoint is shorthand for AddEdge(START, name).
func (b *Builder) SetEntryPoint(name string) error {
	return b.AddEdge(START, name)
}

// AddConditionalEdge routes from a node to routes[decide(state)]. Every
// destination must be registered or END. A key missing from routes fails the
// run with RoutingKeyError when it is produced.
func (b *Builder) AddConditionalEdge(from string, decide RouteFunc, routes map[string]string) error {
	if from == END {
		return b.fail(fmt.Errorf("conditional edge from END is not allowed"))
	}
	if !b.isSource(from) {
		return b.fail(&UnknownNodeError{Name: from, Edge: fmt.Sprintf("%s -> ?", from)})
	}
	if decide == nil {
		return b.fail(fmt.Errorf("conditional edge from %q: %w", from, ErrNilFunction))
	}
	if len(routes) == 0 {
		return b.fail(fmt.Errorf("conditional edge from %q has an empty routing table", from))
	}
	if _, dup := b.conditional[from]; dup {
		return b.fail(fmt.Errorf("node %q already has a conditional edge", from))
	}

	var first error
	for _, key := range sortedKeys(routes) {
		to := routes[key]
		if to == START || !b.isTarget(to) {
			err := b.fail(&UnknownNodeError{Name: to, Edge: fmt.Sprintf("%s -[%s]-> %s", from, key, to)})
			if first == nil {
				first = err
			}
		}
	}
	if first != nil {
		return first
	}

	b.conditional[from] = ConditionalEdge{From: from, Decide: decide, Routes: maps.Clone(routes)}
	return nil
}

// Compile validates the topology and returns an immutable Graph. It fails
// with a GraphValidationError listing all violations. Nodes unreachable from
// START are allowed and reported through Graph.Warnings.
func (b *Builder) Compile(opts ...Option) (*Graph, error) {
	violations := append([]error(nil), b.violations...)
	violations = append(violations, b.schema.validate()...)

	hasEntry := false
	if _, ok := b.conditional[START]; ok {
		hasEntry = true
	}
	for _, e := range b.edges {
		if e.From == START {
			hasEntry = true
			break
		}
	}
	if !hasEntry {
		violations = append(violations, ErrNoEntryPoint)
	}

	if len(violations) > 0 {
		return nil, &GraphValidationError{Violations: violations}
	}

	g := &Graph{
		nodes:       make(map[string]*Node, len(b.nodes)),
		order:       append([]string(nil), b.order...),
		edges:       append([]Edge(nil), b.edges...),
		successors:  make(map[string][]string),
		conditional: maps.Clone(b.conditional),
		schema:      b.schema,
		logger:      &log.NoOpLogger{},
		maxSteps:    DefaultMaxSteps,
	}
	for name, n := range b.nodes {
		cp := *n
		g.nodes[name] = &cp
	}
	for _, e := range g.edges {
		g.successors[e.From] = append(g.successors[e.From], e.To)
	}
	for _, opt := range opts {
		opt(g)
	}

	g.reach = make(map[string]map[string]bool, len(g.order)+1)
	g.reach[START] = g.reachableFrom(START)
	for _, name := range g.order {
		g.reach[name] = g.reachableFrom(name)
	}

	for _, name := range g.order {
		if !g.reach[START][name] {
			w := fmt.Sprintf("node %q is not reachable from START", name)
			g.warnings = append(g.warnings, w)
			g.logger.Warn("%s", w)
		}
	}

	g.logger.Debug("compiled graph with %d nodes, %d edges, %d conditional edges",
		len(g.order), len(g.edges), len(g.conditional))
	return g, nil
}

// targets lists every possible destination of a node, static and conditional.
func (g *Graph) targets(name string) []string {
	out := append([]string(nil), g.successors[name]...)
	if c, ok := g.conditional[name]; ok {
		for _, key := range c.Keys() {
			out = append(out, c.Routes[key])
		}
	}
	return out
}

// reachableFrom returns the nodes reachable from name through one or more
// transitions. END is never included.
func (g *Graph) reachableFrom(name string) map[string]bool {
	seen := make(map[string]bool)
	stack := g.targets(name)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == END || seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.targets(n)...)
	}
	return seen
}
