package article

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/graphflow/graphflow/graph"
)

// promptModel answers paragraph prompts with paragraph and article prompts
// with article.
type promptModel struct {
	mu        sync.Mutex
	paragraph string
	article   string
	err       error
	prompts   []string
	jsonMode  []bool
}

func (m *promptModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	prompt := messages[0].Parts[0].(llms.TextContent).Text

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.jsonMode = append(m.jsonMode, opts.JSONMode)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	reply := m.paragraph
	if strings.HasPrefix(prompt, "Generate an article") {
		reply = m.article
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *promptModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestParagraph(t *testing.T) {
	model := &promptModel{paragraph: "  AI helps insurers price risk.\n"}
	w := NewWriter(model)

	p, err := w.Paragraph(context.Background(), "AI in insurance")
	require.NoError(t, err)
	assert.Equal(t, "AI helps insurers price risk.", p)
	assert.Equal(t, []string{"Write a short paragraph about AI in insurance for an article"}, model.prompts)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Article
	}{
		{
			name:   "plain json",
			output: `{"title": "Underwriting, Upgraded", "summary": "AI is reshaping insurance."}`,
			want:   Article{Title: "Underwriting, Upgraded", Summary: "AI is reshaping insurance."},
		},
		{
			name:   "code fence",
			output: "```json\n{\"title\": \"Claims at Speed\", \"summary\": \"Faster payouts.\"}\n```",
			want:   Article{Title: "Claims at Speed", Summary: "Faster payouts."},
		},
		{
			name:   "prose around json",
			output: "Here you go:\n{\"title\": \"Risk, Reimagined\", \"summary\": \"Better models.\"}\nEnjoy!",
			want:   Article{Title: "Risk, Reimagined", Summary: "Better models."},
		},
		{
			name:   "trailing comma",
			output: `{"title": "Premium Insights", "summary": "Data drives pricing.",}`,
			want:   Article{Title: "Premium Insights", Summary: "Data drives pricing."},
		},
		{
			name:   "single quotes",
			output: `{'title': 'Policy Pulse', 'summary': 'Smarter policies.'}`,
			want:   Article{Title: "Policy Pulse", Summary: "Smarter policies."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &promptModel{article: tt.output}
			a, err := NewWriter(model, WithJSONMode()).Generate(context.Background(), "AI in insurance", "kind")
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)

			require.Len(t, model.prompts, 1)
			assert.Contains(t, model.prompts[0], "Use the AI in insurance and the kind tone.")
			assert.True(t, model.jsonMode[0])
		})
	}
}

func TestGenerateInvalid(t *testing.T) {
	for _, output := range []string{`{"summary": "no title"}`, `[]`} {
		_, err := NewWriter(&promptModel{article: output}).Generate(context.Background(), "t", "x")
		assert.ErrorIs(t, err, ErrInvalidArticle, output)
	}

	_, err := NewWriter(&promptModel{err: errors.New("quota")}).Generate(context.Background(), "t", "x")
	assert.ErrorContains(t, err, "quota")
}

func TestArticleGraph(t *testing.T) {
	model := &promptModel{
		paragraph: "A paragraph.",
		article:   `{"title": "T", "summary": "S"}`,
	}
	g, err := NewGraph(NewWriter(model))
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), graph.State{FieldTopic: "AI"})
	require.NoError(t, err)
	assert.Equal(t, "A paragraph.", out[FieldParagraph])
	assert.Equal(t, Article{Title: "T", Summary: "S"}, out[FieldArticle])

	var headlinePrompt string
	for _, p := range model.prompts {
		if strings.HasPrefix(p, "Generate an article") {
			headlinePrompt = p
		}
	}
	assert.Contains(t, headlinePrompt, "the neutral tone")

	_, err = g.Invoke(context.Background(), graph.State{})
	var nodeErr *graph.NodeExecutionError
	assert.ErrorAs(t, err, &nodeErr)
}
