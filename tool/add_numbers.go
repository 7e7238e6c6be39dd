package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tmc/langchaingo/tools"
)

// AddNumbers adds the numbers "a" and "b".
type AddNumbers struct{}

var (
	_ tools.Tool = AddNumbers{}
	_ Schema     = AddNumbers{}
)

// Name returns the name of the tool.
func (AddNumbers) Name() string {
	return "add_numbers"
}

// Description returns the description of the tool.
func (AddNumbers) Description() string {
	return "Use this tool when you need to add two numbers. It takes two numbers, 'a' and 'b', and returns their sum."
}

// Parameters implements Schema.
func (AddNumbers) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number", "description": "The first number to add."},
			"b": map[string]any{"type": "number", "description": "The second number to add."},
		},
		"required": []string{"a", "b"},
	}
}

// Call expects {"a": <number>, "b": <number>} and returns the sum.
func (AddNumbers) Call(ctx context.Context, input string) (string, error) {
	var args struct {
		A *float64 `json:"a"`
		B *float64 `json:"b"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.A == nil || args.B == nil {
		return "", fmt.Errorf("both a and b are required")
	}
	return strconv.FormatFloat(*args.A+*args.B, 'f', -1, 64), nil
}
