package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/tools"
)

type langchainAdapter struct {
	tool tools.Tool
}

// FromLangchainTool wraps a langchaingo tool as an Adapter. An "input"
// string parameter is passed through verbatim, any other parameter map
// is JSON-encoded into the tool's single string input.
func FromLangchainTool(tool tools.Tool) Adapter {
	return &langchainAdapter{tool: tool}
}

func (a *langchainAdapter) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	input, ok := params["input"].(string)
	if !ok {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool input: %w", err)
		}
		input = string(data)
	}

	output, err := a.tool.Call(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("tool %s failed: %w", a.tool.Name(), err)
	}

	return map[string]any{
		"output": output,
	}, nil
}
