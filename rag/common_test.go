package rag

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
)

// keywordEmbedder maps each text to a vector counting the keywords it
// contains, one dimension per keyword.
func keywordEmbedder(keywords ...string) embeddings.Embedder {
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			vec := make([]float32, len(keywords))
			lower := strings.ToLower(text)
			for j, kw := range keywords {
				vec[j] = float32(strings.Count(lower, kw))
			}
			out[i] = vec
		}
		return out, nil
	})
	e, _ := embeddings.NewEmbedder(client)
	return e
}

// recordingModel answers with a fixed reply and keeps the messages it was
// called with.
type recordingModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages [][]llms.MessageContent
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages)
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func text(m llms.MessageContent) string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(llms.TextContent); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}
