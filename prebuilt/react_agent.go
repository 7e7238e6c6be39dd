package prebuilt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/graphflow/graphflow/graph"
	"github.com/graphflow/graphflow/log"
	"github.com/graphflow/graphflow/tool"
)

// FieldMessages holds the conversation of an agent run.
const FieldMessages = "messages"

// DefaultMaxIterations bounds the agent/tools round trips of one run.
const DefaultMaxIterations = 10

// ErrNoChoices is returned when the model response has no choices.
var ErrNoChoices = errors.New("model returned no choices")

// AgentOption configures CreateReactAgent.
type AgentOption func(*agentConfig)

type agentConfig struct {
	systemPrompt  string
	maxIterations int
	logger        log.Logger
	graphOptions  []graph.Option
}

// WithSystemPrompt prepends a system message to every model call. The prompt
// is not stored in the state.
func WithSystemPrompt(prompt string) AgentOption {
	return func(c *agentConfig) { c.systemPrompt = prompt }
}

// WithMaxIterations sets how many times the agent may call tools before the
// run fails with a graph.StepLimitError.
func WithMaxIterations(n int) AgentOption {
	return func(c *agentConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithLogger sets the logger used by the agent nodes and the compiled graph.
func WithLogger(l log.Logger) AgentOption {
	return func(c *agentConfig) { c.logger = l }
}

// WithGraphOptions passes extra options to Compile.
func WithGraphOptions(opts ...graph.Option) AgentOption {
	return func(c *agentConfig) { c.graphOptions = append(c.graphOptions, opts...) }
}

// AgentSchema is the state schema of the ReAct agent.
func AgentSchema() *graph.Schema {
	return graph.NewSchema(
		graph.FieldOf[[]llms.MessageContent](FieldMessages, graph.WithReducer(graph.AppendReducer)),
	)
}

// Messages builds the input state of an agent run.
func Messages(msgs ...llms.MessageContent) graph.State {
	return graph.State{FieldMessages: msgs}
}

// CreateReactAgent creates a new ReAct agent graph.
func CreateReactAgent(model llms.Model, inputTools []tools.Tool, opts ...AgentOption) (*graph.Graph, error) {
	if model == nil {
		return nil, fmt.Errorf("react agent: %w", graph.ErrNilFunction)
	}
	cfg := &agentConfig{maxIterations: DefaultMaxIterations, logger: &log.NoOpLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}

	executor := newToolExecutor(inputTools, cfg.logger)
	var callOpts []llms.CallOption
	if len(inputTools) > 0 {
		callOpts = append(callOpts, llms.WithTools(tool.Definitions(inputTools)))
	}

	b := graph.NewBuilder(AgentSchema())

	b.AddNode("agent", func(ctx context.Context, state graph.State) (graph.State, error) {
		messages, _ := graph.Get[[]llms.MessageContent](state, FieldMessages)
		if len(messages) == 0 {
			return nil, fmt.Errorf("no messages to respond to")
		}
		if cfg.systemPrompt != "" {
			messages = append([]llms.MessageContent{
				llms.TextParts(llms.ChatMessageTypeSystem, cfg.systemPrompt),
			}, messages...)
		}

		resp, err := model.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrNoChoices
		}
		choice := resp.Choices[0]

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}
		cfg.logger.Debug("agent replied with %d tool calls", len(choice.ToolCalls))

		return graph.State{FieldMessages: []llms.MessageContent{aiMsg}}, nil
	}, graph.WithDescription("ReAct agent decision maker"))

	b.AddNode("tools", func(ctx context.Context, state graph.State) (graph.State, error) {
		messages, _ := graph.Get[[]llms.MessageContent](state, FieldMessages)
		if len(messages) == 0 || messages[len(messages)-1].Role != llms.ChatMessageTypeAI {
			return nil, fmt.Errorf("last message is not an AI message")
		}

		var toolMessages []llms.MessageContent
		for _, tc := range toolCalls(messages[len(messages)-1]) {
			toolMessages = append(toolMessages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    executor.execute(ctx, tc),
				}},
			})
		}
		return graph.State{FieldMessages: toolMessages}, nil
	}, graph.WithDescription("Tool execution node"))

	b.SetEntryPoint("agent")
	b.AddConditionalEdge("agent", func(ctx context.Context, state graph.State) string {
		messages, _ := graph.Get[[]llms.MessageContent](state, FieldMessages)
		if len(messages) > 0 && len(toolCalls(messages[len(messages)-1])) > 0 {
			return "tools"
		}
		return graph.END
	}, map[string]string{"tools": "tools", graph.END: graph.END})
	b.AddEdge("tools", "agent")

	// One step for the first agent turn, then two per tool round trip.
	graphOpts := []graph.Option{
		graph.WithLogger(cfg.logger),
		graph.WithMaxSteps(2*cfg.maxIterations + 1),
	}
	return b.Compile(append(graphOpts, cfg.graphOptions...)...)
}

// FinalAnswer returns the text of the last message in state.
func FinalAnswer(state graph.State) string {
	messages, _ := graph.Get[[]llms.MessageContent](state, FieldMessages)
	if len(messages) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range messages[len(messages)-1].Parts {
		if t, ok := p.(llms.TextContent); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

func toolCalls(msg llms.MessageContent) []llms.ToolCall {
	if msg.Role != llms.ChatMessageTypeAI {
		return nil
	}
	var calls []llms.ToolCall
	for _, part := range msg.Parts {
		if tc, ok := part.(llms.ToolCall); ok && tc.FunctionCall != nil {
			calls = append(calls, tc)
		}
	}
	return calls
}

type toolExecutor struct {
	tools  map[string]tools.Tool
	logger log.Logger
}

func newToolExecutor(ts []tools.Tool, logger log.Logger) *toolExecutor {
	e := &toolExecutor{tools: make(map[string]tools.Tool, len(ts)), logger: logger}
	for _, t := range ts {
		e.tools[t.Name()] = t
	}
	return e
}

// execute runs one tool call. Failures are reported to the model as the
// tool response.
func (e *toolExecutor) execute(ctx context.Context, tc llms.ToolCall) string {
	name := tc.FunctionCall.Name
	t, ok := e.tools[name]
	if !ok {
		e.logger.Warn("model called unknown tool %q", name)
		return fmt.Sprintf("Error: tool %q not found", name)
	}

	e.logger.Info("calling tool %s", name)
	out, err := t.Call(ctx, tool.Input(t, tc.FunctionCall.Arguments))
	if err != nil {
		e.logger.Warn("tool %s failed: %v", name, err)
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}
