// Package article drafts short article copy with a chat model: free-text
// paragraphs and a structured title and summary decoded from JSON.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"

	"github.com/graphflow/graphflow/log"
)

const paragraphTemplate = "Write a short paragraph about {{.topic}} for an article"

const articleTemplate = `Generate an article with a title and a summary. Use the {{.topic}} and the {{.tone}} tone. You MUST format the response into a JSON that adheres to our schema
Schema:
{
  "title": "A catchy engaging title for the article",
  "summary": "A short one sentence summary of the articles content"
}
Respond with the JSON object only.`

// ErrInvalidArticle is returned when the model output cannot be decoded into
// an Article.
var ErrInvalidArticle = errors.New("invalid article")

// Article is the structured output of Generate.
type Article struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Writer generates article copy with a chat model.
type Writer struct {
	model     llms.Model
	paragraph prompts.PromptTemplate
	article   prompts.PromptTemplate
	jsonMode  bool
	logger    log.Logger
}

type Option func(*Writer)

// WithJSONMode asks the model for a JSON response when generating articles.
// Only providers with a JSON response format support it.
func WithJSONMode() Option {
	return func(w *Writer) { w.jsonMode = true }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// NewWriter creates a Writer for model.
func NewWriter(model llms.Model, opts ...Option) *Writer {
	w := &Writer{
		model:     model,
		paragraph: prompts.NewPromptTemplate(paragraphTemplate, []string{"topic"}),
		article:   prompts.NewPromptTemplate(articleTemplate, []string{"topic", "tone"}),
		logger:    &log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Paragraph writes a short paragraph about topic.
func (w *Writer) Paragraph(ctx context.Context, topic string) (string, error) {
	prompt, err := w.paragraph.Format(map[string]any{"topic": topic})
	if err != nil {
		return "", err
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, w.model, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Generate asks for a title and a one sentence summary about topic in the
// given tone.
func (w *Writer) Generate(ctx context.Context, topic, tone string) (Article, error) {
	prompt, err := w.article.Format(map[string]any{"topic": topic, "tone": tone})
	if err != nil {
		return Article{}, err
	}
	var callOpts []llms.CallOption
	if w.jsonMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, w.model, prompt, callOpts...)
	if err != nil {
		return Article{}, err
	}
	return w.decode(out)
}

func (w *Writer) decode(content string) (Article, error) {
	content = extractJSON(content)

	var a Article
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return Article{}, fmt.Errorf("%w: %v (repair failed: %v)", ErrInvalidArticle, err, repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &a); err != nil {
			return Article{}, fmt.Errorf("%w: %v", ErrInvalidArticle, err)
		}
		w.logger.Debug("repaired article JSON")
	}

	a.Title = strings.TrimSpace(a.Title)
	a.Summary = strings.TrimSpace(a.Summary)
	if a.Title == "" {
		return Article{}, fmt.Errorf("%w: missing title", ErrInvalidArticle)
	}
	return a, nil
}

// extractJSON drops markdown code fences and any prose around the outermost
// JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}
	if start := strings.Index(s, "{"); start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndex(s, "}"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}
	return s
}
