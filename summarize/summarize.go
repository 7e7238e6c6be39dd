package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/sync/errgroup"

	"github.com/graphflow/graphflow/graph"
	"github.com/graphflow/graphflow/log"
	"github.com/graphflow/graphflow/rag"
)

// Summarization graph state fields.
const (
	FieldText      = "text"
	FieldChunks    = "chunks"
	FieldSummaries = "summaries"
	FieldSummary   = "summary"
)

const (
	DefaultSentences   = 3
	DefaultConcurrency = 4
)

const chunkTemplate = `Please summarize the {{.subject}} chunk in about {{.sentences}} sentences. Focus on the main points and ideas
---
{{.chunk}}
---
SUMMARY:`

const reduceTemplate = `You have been given several summaries from different parts of a {{.source}}.
Please synthesize them to a single, well written and concise paragraph that captures the entire {{.whole}}.
---
INDIVIDUAL SUMMARIES:
{{.summaries}}
---
FINAL SUMMARY:`

// Subject names what is being summarized in the prompts.
type Subject struct {
	// Chunk describes a single chunk, as in "the <Chunk> chunk".
	Chunk string
	// Source describes the text, as in "different parts of a <Source>".
	Source string
	// Whole names the text, as in "captures the entire <Whole>".
	Whole string
}

var (
	Document          = Subject{Chunk: "document", Source: "document", Whole: "document"}
	VideoTranscript   = Subject{Chunk: "video transcript", Source: "youtube video transcript", Whole: "video"}
	TechnicalDocument = Subject{Chunk: "technical document", Source: "technical document", Whole: "document"}
)

// Option configures NewGraph.
type Option func(*options)

type options struct {
	subject      Subject
	sentences    int
	concurrency  int
	splitterOpts []rag.SplitterOption
	logger       log.Logger
	graphOptions []graph.Option
}

// WithSubject sets how the prompts refer to the text.
func WithSubject(s Subject) Option {
	return func(o *options) { o.subject = s }
}

// WithSentences sets the target length of each chunk summary.
func WithSentences(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sentences = n
		}
	}
}

// WithConcurrency bounds the number of chunks summarized at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithChunking sets the chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(o *options) {
		o.splitterOpts = []rag.SplitterOption{rag.WithChunkSize(size), rag.WithChunkOverlap(overlap)}
	}
}

// WithLogger sets the logger used by the nodes and the compiled graph.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGraphOptions passes extra options to Compile.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(o *options) { o.graphOptions = append(o.graphOptions, opts...) }
}

// Schema is the state schema of the summarization graph.
func Schema() *graph.Schema {
	return graph.NewSchema(
		graph.FieldOf[string](FieldText),
		graph.FieldOf[[]string](FieldChunks),
		graph.FieldOf[[]string](FieldSummaries),
		graph.FieldOf[string](FieldSummary),
	)
}

type summarizer struct {
	model    llms.Model
	opts     *options
	splitter *rag.Splitter
	chunk    prompts.PromptTemplate
	reduce   prompts.PromptTemplate
}

// NewGraph compiles the map-reduce summarization graph for model.
func NewGraph(model llms.Model, opts ...Option) (*graph.Graph, error) {
	if model == nil {
		return nil, fmt.Errorf("summarize: %w", graph.ErrNilFunction)
	}
	o := &options{
		subject:     Document,
		sentences:   DefaultSentences,
		concurrency: DefaultConcurrency,
		logger:      &log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &summarizer{
		model:    model,
		opts:     o,
		splitter: rag.NewSplitter(o.splitterOpts...),
		chunk:    prompts.NewPromptTemplate(chunkTemplate, []string{"subject", "sentences", "chunk"}),
		reduce:   prompts.NewPromptTemplate(reduceTemplate, []string{"source", "whole", "summaries"}),
	}

	b := graph.NewBuilder(Schema())
	b.AddNode("split", s.split, graph.WithDescription("Split the text into chunks"))
	b.AddNode("map", s.summarizeChunks, graph.WithDescription("Summarize every chunk"))
	b.AddNode("reduce", s.combine, graph.WithDescription("Combine the chunk summaries"))
	b.SetEntryPoint("split")
	b.AddEdge("split", "map")
	b.AddEdge("map", "reduce")
	b.AddEdge("reduce", graph.END)

	return b.Compile(append([]graph.Option{graph.WithLogger(o.logger)}, o.graphOptions...)...)
}

// Summarize runs a summarization graph over text and returns the summary.
func Summarize(ctx context.Context, g *graph.Graph, text string) (string, error) {
	out, err := g.Invoke(ctx, graph.State{FieldText: text})
	if err != nil {
		return "", err
	}
	return graph.GetOr(out, FieldSummary, ""), nil
}

func (s *summarizer) split(ctx context.Context, state graph.State) (graph.State, error) {
	text := graph.GetOr(state, FieldText, "")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to summarize")
	}
	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	s.opts.logger.Info("split text into %d chunks", len(chunks))
	return graph.State{FieldChunks: chunks}, nil
}

func (s *summarizer) summarizeChunks(ctx context.Context, state graph.State) (graph.State, error) {
	chunks := graph.GetOr(state, FieldChunks, []string(nil))
	summaries := make([]string, len(chunks))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.concurrency)
	for i, chunk := range chunks {
		eg.Go(func() error {
			prompt, err := s.chunk.Format(map[string]any{
				"subject":   s.opts.subject.Chunk,
				"sentences": s.opts.sentences,
				"chunk":     chunk,
			})
			if err != nil {
				return err
			}
			summary, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			summaries[i] = strings.TrimSpace(summary)
			s.opts.logger.Debug("summarized chunk %d/%d", i+1, len(chunks))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return graph.State{FieldSummaries: summaries}, nil
}

func (s *summarizer) combine(ctx context.Context, state graph.State) (graph.State, error) {
	summaries := graph.GetOr(state, FieldSummaries, []string(nil))
	prompt, err := s.reduce.Format(map[string]any{
		"source":    s.opts.subject.Source,
		"whole":     s.opts.subject.Whole,
		"summaries": strings.Join(summaries, "\n\n"),
	})
	if err != nil {
		return nil, err
	}
	summary, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt)
	if err != nil {
		return nil, err
	}
	return graph.State{FieldSummary: strings.TrimSpace(summary)}, nil
}
