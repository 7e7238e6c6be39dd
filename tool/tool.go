package tool

import (
	"encoding/json"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// Schema is implemented by tools that accept structured JSON arguments.
type Schema interface {
	// Parameters returns the JSON schema of the tool arguments
	Parameters() map[string]any
}

// inputSchema is used for tools taking a single free-form string.
var inputSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"input": map[string]any{
			"type":        "string",
			"description": "the input to the tool",
		},
	},
	"required": []string{"input"},
}

// Definitions describes ts as function tools for a chat model.
func Definitions(ts []tools.Tool) []llms.Tool {
	defs := make([]llms.Tool, len(ts))
	for i, t := range ts {
		params := inputSchema
		if s, ok := t.(Schema); ok {
			params = s.Parameters()
		}
		defs[i] = llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		}
	}
	return defs
}

// Input converts the JSON arguments of a model tool call into the string
// passed to t.Call. Schema tools receive the arguments unchanged; other tools
// receive the "input" argument, or the raw arguments when it is missing.
func Input(t tools.Tool, arguments string) string {
	if _, ok := t.(Schema); ok {
		return arguments
	}
	var args struct {
		Input *string `json:"input"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err == nil && args.Input != nil {
		return *args.Input
	}
	return arguments
}

// queryInput accepts either a plain query or a JSON object with a "query"
// field.
func queryInput(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") {
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(trimmed), &args); err == nil && args.Query != "" {
			return args.Query
		}
	}
	return trimmed
}
