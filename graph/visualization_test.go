package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualization(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.AddNode("a", noop))
	require.NoError(t, b.AddNode("b", noop))
	require.NoError(t, b.AddNode("c", noop))
	require.NoError(t, b.SetEntryPoint("a"))
	require.NoError(t, b.AddConditionalEdge("a", func(ctx context.Context, s State) string { return "goToB" },
		map[string]string{"goToB": "b", "goToC": "c"}))
	require.NoError(t, b.AddEdge("b", END))
	require.NoError(t, b.AddEdge("c", END))

	g, err := b.Compile()
	require.NoError(t, err)

	exporter := NewExporter(g)

	mermaid := exporter.DrawMermaid()
	assert.Contains(t, mermaid, "flowchart TD")
	assert.Contains(t, mermaid, "START --> a")
	assert.Contains(t, mermaid, "a -.->|goToB| b")
	assert.Contains(t, mermaid, "a -.->|goToC| c")
	assert.Contains(t, mermaid, "c --> END")
	assert.Contains(t, mermaid, "style END fill:#FFB6C1")

	mermaidLR := exporter.DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
	assert.Contains(t, mermaidLR, "flowchart LR")

	dot := exporter.DrawDOT()
	assert.Contains(t, dot, "START -> a;")
	assert.Contains(t, dot, "a -> b [style=dashed, label=\"goToB\"];")
	assert.Contains(t, dot, "END [label=\"END\"")
}

func TestVisualizationWithoutEnd(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.AddNode("only", noop))
	require.NoError(t, b.SetEntryPoint("only"))

	g, err := b.Compile()
	require.NoError(t, err)

	mermaid := NewExporter(g).DrawMermaid()
	assert.NotContains(t, mermaid, "END")
	assert.Contains(t, mermaid, "only[\"only\"]")
}
