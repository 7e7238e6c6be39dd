package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/graphflow/graphflow/graph"
	"github.com/graphflow/graphflow/log"
)

// QA graph state fields.
const (
	FieldQuestion  = "question"
	FieldDocuments = "documents"
	FieldContext   = "context"
	FieldAnswer    = "answer"
)

const systemTemplate = `You are an expert Q&A assistant. Use the following pieces of context from a PDF document to answer the question at the end.
If you don't know the answer from the provided context, just say that you don't know. Do not make up an answer.
----------------
CONTEXT:
{{.context}}
----------------
QUESTION:
{{.question}}`

// Retriever finds the chunks relevant to a query. *Index implements it.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// QAOption configures NewQAGraph.
type QAOption func(*qaConfig)

type qaConfig struct {
	topK         int
	logger       log.Logger
	graphOptions []graph.Option
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) QAOption {
	return func(c *qaConfig) { c.topK = k }
}

// WithLogger sets the logger used by the QA nodes and the compiled graph.
func WithLogger(logger log.Logger) QAOption {
	return func(c *qaConfig) { c.logger = logger }
}

// WithGraphOptions passes extra options to Compile.
func WithGraphOptions(opts ...graph.Option) QAOption {
	return func(c *qaConfig) { c.graphOptions = append(c.graphOptions, opts...) }
}

// QASchema is the state schema of the QA graph.
func QASchema() *graph.Schema {
	return graph.NewSchema(
		graph.FieldOf[string](FieldQuestion),
		graph.FieldOf[[]SearchResult](FieldDocuments),
		graph.FieldOf[string](FieldContext),
		graph.FieldOf[string](FieldAnswer),
	)
}

// NewQAGraph compiles the graph START -> retrieve -> generate -> END.
//
// retrieve searches the question in retriever and joins the top chunks into
// the context; generate answers from that context with model.
func NewQAGraph(retriever Retriever, model llms.Model, opts ...QAOption) (*graph.Graph, error) {
	cfg := &qaConfig{topK: DefaultTopK, logger: &log.NoOpLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}

	prompt := prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.NewSystemMessagePromptTemplate(systemTemplate, []string{FieldContext, FieldQuestion}),
		prompts.NewHumanMessagePromptTemplate("{{.question}}", []string{FieldQuestion}),
	})

	retrieve := func(ctx context.Context, state graph.State) (graph.State, error) {
		question, _ := graph.Get[string](state, FieldQuestion)
		if strings.TrimSpace(question) == "" {
			return nil, fmt.Errorf("question is empty")
		}

		results, err := retriever.Search(ctx, question, cfg.topK)
		if err != nil {
			return nil, fmt.Errorf("retrieval failed: %w", err)
		}
		cfg.logger.Info("retrieved %d chunks for %q", len(results), question)

		contents := make([]string, len(results))
		for i, r := range results {
			contents[i] = r.Chunk.Content
		}
		return graph.State{
			FieldDocuments: results,
			FieldContext:   strings.Join(contents, "\n\n"),
		}, nil
	}

	generate := func(ctx context.Context, state graph.State) (graph.State, error) {
		question, _ := graph.Get[string](state, FieldQuestion)
		retrieved, _ := graph.Get[string](state, FieldContext)

		chatMessages, err := prompt.FormatMessages(map[string]any{
			FieldContext:  retrieved,
			FieldQuestion: question,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to format prompt: %w", err)
		}

		messages := make([]llms.MessageContent, len(chatMessages))
		for i, m := range chatMessages {
			messages[i] = llms.TextParts(m.GetType(), m.GetContent())
		}

		resp, err := model.GenerateContent(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty response from model")
		}
		return graph.State{FieldAnswer: resp.Choices[0].Content}, nil
	}

	// Builder errors are collected and reported by Compile.
	b := graph.NewBuilder(QASchema())
	b.AddNode("retrieve", retrieve, graph.WithDescription("Search the index for the question"))
	b.AddNode("generate", generate, graph.WithDescription("Answer from the retrieved context"))
	b.AddEdge(graph.START, "retrieve")
	b.AddEdge("retrieve", "generate")
	b.AddEdge("generate", graph.END)

	compileOpts := append([]graph.Option{graph.WithLogger(cfg.logger)}, cfg.graphOptions...)
	return b.Compile(compileOpts...)
}
