package article

import (
	"context"
	"fmt"

	"github.com/graphflow/graphflow/graph"
)

// Article graph state fields.
const (
	FieldTopic     = "topic"
	FieldTone      = "tone"
	FieldParagraph = "paragraph"
	FieldArticle   = "article"
)

// NewGraph compiles a graph that writes the paragraph and the headline of a
// topic in parallel:
//
//	START -> paragraph -> END
//	START -> headline  -> END
func NewGraph(w *Writer, opts ...graph.Option) (*graph.Graph, error) {
	b := graph.NewBuilder(graph.NewSchema(
		graph.FieldOf[string](FieldTopic),
		graph.FieldOf[string](FieldTone, graph.WithDefault("neutral")),
		graph.FieldOf[string](FieldParagraph),
		graph.FieldOf[Article](FieldArticle),
	))

	b.AddNode("paragraph", func(ctx context.Context, state graph.State) (graph.State, error) {
		topic, err := topicOf(state)
		if err != nil {
			return nil, err
		}
		p, err := w.Paragraph(ctx, topic)
		if err != nil {
			return nil, err
		}
		return graph.State{FieldParagraph: p}, nil
	}, graph.WithDescription("Write a paragraph"))

	b.AddNode("headline", func(ctx context.Context, state graph.State) (graph.State, error) {
		topic, err := topicOf(state)
		if err != nil {
			return nil, err
		}
		a, err := w.Generate(ctx, topic, graph.GetOr(state, FieldTone, ""))
		if err != nil {
			return nil, err
		}
		return graph.State{FieldArticle: a}, nil
	}, graph.WithDescription("Write a title and summary"))

	b.AddEdge(graph.START, "paragraph")
	b.AddEdge(graph.START, "headline")
	b.AddEdge("paragraph", graph.END)
	b.AddEdge("headline", graph.END)

	return b.Compile(append([]graph.Option{graph.WithLogger(w.logger)}, opts...)...)
}

func topicOf(state graph.State) (string, error) {
	topic := graph.GetOr(state, FieldTopic, "")
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	return topic, nil
}
