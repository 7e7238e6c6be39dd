package graph

import (
	"fmt"
	"strings"
)

// Exporter renders a compiled graph as text diagrams.
type Exporter struct {
	graph *Graph
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter(graph *Graph) *Exporter {
	return &Exporter{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
// Conditional edges are drawn dotted and labelled with their routing key.
func (ge *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	sb.WriteString("    START([\"START\"])\n")
	for _, n := range ge.graph.Nodes() {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", n.Name, n.Name)
	}
	if ge.referencesEnd() {
		sb.WriteString("    END([\"END\"])\n")
	}

	for _, e := range ge.graph.Edges() {
		fmt.Fprintf(&sb, "    %s --> %s\n", e.From, e.To)
	}
	for _, c := range ge.graph.ConditionalEdges() {
		for _, key := range c.Keys() {
			fmt.Fprintf(&sb, "    %s -.->|%s| %s\n", c.From, key, c.Routes[key])
		}
	}

	sb.WriteString("    style START fill:#90EE90\n")
	if ge.referencesEnd() {
		sb.WriteString("    style END fill:#FFB6C1\n")
	}
	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the graph
func (ge *Exporter) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("    START [label=\"START\", shape=ellipse, style=filled, fillcolor=lightgreen];\n")
	if ge.referencesEnd() {
		sb.WriteString("    END [label=\"END\", shape=ellipse, style=filled, fillcolor=lightpink];\n")
	}

	for _, e := range ge.graph.Edges() {
		fmt.Fprintf(&sb, "    %s -> %s;\n", e.From, e.To)
	}
	for _, c := range ge.graph.ConditionalEdges() {
		for _, key := range c.Keys() {
			fmt.Fprintf(&sb, "    %s -> %s [style=dashed, label=\"%s\"];\n", c.From, c.Routes[key], key)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (ge *Exporter) referencesEnd() bool {
	for _, e := range ge.graph.edges {
		if e.To == END {
			return true
		}
	}
	for _, c := range ge.graph.conditional {
		for _, to := range c.Routes {
			if to == END {
				return true
			}
		}
	}
	return false
}
