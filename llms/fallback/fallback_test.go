package fallback

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"

	"github.com/graphflow/graphflow/llms/providers"
	"github.com/graphflow/graphflow/log"
)

func TestFallbackOrder(t *testing.T) {
	tests := []struct {
		name    string
		models  []providers.Named
		want    string
		wantErr string
	}{
		{
			name: "first answers",
			models: []providers.Named{
				{Provider: providers.OpenAI, Model: fake.NewFakeLLM([]string{"gpt"})},
				{Provider: providers.Groq, Model: fake.NewFakeLLM([]string{"groq"})},
			},
			want: "gpt",
		},
		{
			name: "failure falls through",
			models: []providers.Named{
				{Provider: providers.OpenAI, Model: fake.NewFakeLLM(nil)},
				{Provider: providers.Groq, Model: fake.NewFakeLLM([]string{"groq"})},
			},
			want: "groq",
		},
		{
			name: "empty answer falls through",
			models: []providers.Named{
				{Provider: providers.OpenAI, Model: fake.NewFakeLLM([]string{"  "})},
				{Provider: providers.Groq, Model: fake.NewFakeLLM(nil)},
				{Provider: providers.Gemini, Model: fake.NewFakeLLM([]string{"gemini"})},
			},
			want: "gemini",
		},
		{
			name: "all fail",
			models: []providers.Named{
				{Provider: providers.OpenAI, Model: fake.NewFakeLLM(nil)},
				{Provider: providers.Gemini, Model: fake.NewFakeLLM([]string{""})},
			},
			wantErr: "all models failed",
		},
		{
			name:    "no models",
			wantErr: "no models configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New(tt.models).Call(context.Background(), "summarize")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestFallbackErrorsNameProviders(t *testing.T) {
	m := New([]providers.Named{
		{Provider: providers.OpenAI, Model: fake.NewFakeLLM(nil)},
		{Provider: providers.Gemini, Model: fake.NewFakeLLM([]string{""})},
	})

	_, err := m.Call(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: no responses configured")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestFallbackLogsAttempts(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewCustomLogger(&buf, log.LogLevelWarn)

	m := New([]providers.Named{
		{Provider: providers.OpenAI, Model: fake.NewFakeLLM(nil)},
		{Provider: providers.Groq, Model: fake.NewFakeLLM([]string{"ok"})},
	}, WithLogger(logger))

	out, err := m.Call(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Contains(t, buf.String(), "model openai failed")
}

func TestFallbackStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New([]providers.Named{{Provider: providers.OpenAI, Model: fake.NewFakeLLM([]string{"x"})}}).Call(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
