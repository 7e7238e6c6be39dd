// Package fallback provides an llms.Model that tries a list of models in
// order until one answers.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/graphflow/graphflow/llms/providers"
	"github.com/graphflow/graphflow/log"
)

// ErrEmptyResponse is recorded for a model that returned no usable choice.
var ErrEmptyResponse = errors.New("empty response")

// Model calls each of its models in order and returns the first non-empty
// response. It fails with the errors of every model when none answers.
type Model struct {
	models []providers.Named
	logger log.Logger
}

var _ llms.Model = (*Model)(nil)

// Option configures a Model.
type Option func(*Model)

// WithLogger logs each failed attempt at warn level.
func WithLogger(logger log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a fallback model over models.
func New(models []providers.Named, opts ...Option) *Model {
	m := &Model{
		models: models,
		logger: &log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateContent implements llms.Model.
func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(m.models) == 0 {
		return nil, errors.New("fallback: no models configured")
	}

	var errs []error
	for _, candidate := range m.models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := candidate.Model.GenerateContent(ctx, messages, options...)
		if err == nil && empty(resp) {
			err = ErrEmptyResponse
		}
		if err == nil {
			return resp, nil
		}

		m.logger.Warn("model %s failed: %v", candidate.Provider, err)
		errs = append(errs, fmt.Errorf("%s: %w", candidate.Provider, err))
	}
	return nil, fmt.Errorf("all models failed: %w", errors.Join(errs...))
}

// Call implements llms.Model.
func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func empty(resp *llms.ContentResponse) bool {
	if resp == nil || len(resp.Choices) == 0 {
		return true
	}
	c := resp.Choices[0]
	return strings.TrimSpace(c.Content) == "" && len(c.ToolCalls) == 0
}
