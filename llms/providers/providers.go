// Package providers builds the chat models graphflow talks to.
//
// OpenAI, Groq and Gemini are all reached through OpenAI compatible chat
// endpoints, so one langchaingo client type serves every provider.
package providers

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/graphflow/graphflow/config"
)

// Provider names a chat model vendor.
type Provider string

const (
	OpenAI Provider = "openai"
	Groq   Provider = "groq"
	Gemini Provider = "gemini"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// Named pairs a model with the provider it came from.
type Named struct {
	Provider Provider
	Model    llms.Model
}

// Option adjusts the underlying langchaingo client.
type Option = openai.Option

// New creates a chat model for the given provider from cfg.
func New(p Provider, cfg *config.Config, opts ...Option) (llms.Model, error) {
	switch p {
	case OpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("%s: OPENAI_API_KEY is not set", p)
		}
		base := []openai.Option{openai.WithToken(cfg.OpenAIKey), openai.WithModel(cfg.OpenAIModel)}
		if cfg.OpenAIURL != "" {
			base = append(base, openai.WithBaseURL(cfg.OpenAIURL))
		}
		return newOpenAI(p, base, opts)
	case Groq:
		if cfg.GroqKey == "" {
			return nil, fmt.Errorf("%s: GROQ_API_KEY is not set", p)
		}
		return newOpenAI(p, []openai.Option{
			openai.WithToken(cfg.GroqKey),
			openai.WithModel(cfg.GroqModel),
			openai.WithBaseURL(GroqBaseURL),
		}, opts)
	case Gemini:
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("%s: GEMINI_API_KEY is not set", p)
		}
		return newOpenAI(p, []openai.Option{
			openai.WithToken(cfg.GeminiKey),
			openai.WithModel(cfg.GeminiModel),
			openai.WithBaseURL(GeminiBaseURL),
		}, opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", p)
	}
}

func newOpenAI(p Provider, base, extra []openai.Option) (llms.Model, error) {
	model, err := openai.New(append(base, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return model, nil
}

// NewEmbedder returns an embedder backed by the Ollama server at
// cfg.OllamaURL using cfg.EmbeddingModel.
func NewEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	client, err := ollama.New(ollama.WithServerURL(cfg.OllamaURL), ollama.WithModel(cfg.EmbeddingModel))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return embeddings.NewEmbedder(client)
}

// Chain builds every provider of order that has credentials configured, in
// that order. It fails only when none can be built.
func Chain(cfg *config.Config, order ...Provider) ([]Named, error) {
	if len(order) == 0 {
		order = []Provider{OpenAI, Groq, Gemini}
	}

	var (
		chain   []Named
		reasons []string
	)
	for _, p := range order {
		model, err := New(p, cfg)
		if err != nil {
			reasons = append(reasons, err.Error())
			continue
		}
		chain = append(chain, Named{Provider: p, Model: model})
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no chat model available: %s", strings.Join(reasons, "; "))
	}
	return chain, nil
}
