// Package transform converts canonical messages and tool specs into each
// provider family's native representation. All functions are pure apart
// from the ContentPartConverter collaborator.
package transform

import (
	"encoding/json"

	"github.com/qduc/chat-sub010/internal/types"
)

// DefaultToolParameters is the schema substituted when a tool spec omits
// its parameters.
func DefaultToolParameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// NormalizeTools canonicalizes the inbound tools list. Entries may be full
// spec objects or bare tool-name strings (expanded to an empty-parameter
// function spec). Invalid entries are dropped. Returns nil when nothing
// survives so callers can omit the tools field entirely.
func NormalizeTools(raw []json.RawMessage) []types.ChatTool {
	var out []types.ChatTool
	for _, entry := range raw {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			if name == "" {
				continue
			}
			out = append(out, types.ChatTool{
				Type:     "function",
				Function: &types.FunctionDef{Name: name, Parameters: DefaultToolParameters()},
			})
			continue
		}

		var tool types.ChatTool
		if err := json.Unmarshal(entry, &tool); err != nil {
			continue
		}
		if tool.Type != "" && tool.Type != "function" {
			continue
		}
		if tool.Function == nil || tool.Function.Name == "" {
			continue
		}
		if tool.Function.Parameters == nil {
			tool.Function.Parameters = DefaultToolParameters()
		}
		tool.Type = "function"
		out = append(out, tool)
	}
	return out
}

// ToolsToResponses converts canonical tools to the flat Responses API
// format.
func ToolsToResponses(tools []types.ChatTool) []types.ResponsesTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]types.ResponsesTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, types.ResponsesTool{
			Type:        "function",
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Strict:      types.BoolPtr(false),
			Parameters:  t.Function.Parameters,
		})
	}
	return out
}

// ToolsToAnthropic converts canonical tools to Anthropic tool definitions.
func ToolsToAnthropic(tools []types.ChatTool) []types.AnthropicTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]types.AnthropicTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, types.AnthropicTool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: t.Function.Parameters,
		})
	}
	return out
}

// ToolsToGemini converts canonical tools to a single Gemini tool carrying
// all function declarations.
func ToolsToGemini(tools []types.ChatTool) []types.GeminiTool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]types.GeminiFunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, types.GeminiFunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		})
	}
	return []types.GeminiTool{{FunctionDeclarations: decls}}
}

// pinnedToolName extracts the function name from a function-pinned
// canonical tool_choice object.
func pinnedToolName(choice any) string {
	m, ok := choice.(map[string]any)
	if !ok {
		return ""
	}
	if t, _ := m["type"].(string); t != "function" {
		return ""
	}
	fn, _ := m["function"].(map[string]any)
	name, _ := fn["name"].(string)
	return name
}

// ToolChoiceToResponses maps the canonical tool_choice to the Responses API
// shape. Unknown values fall back to "auto".
func ToolChoiceToResponses(choice any) any {
	switch c := choice.(type) {
	case nil:
		return nil
	case string:
		switch c {
		case "auto", "none", "required":
			return c
		}
		return "auto"
	default:
		if name := pinnedToolName(choice); name != "" {
			return map[string]any{"type": "function", "name": name}
		}
		return "auto"
	}
}

// ToolChoiceToAnthropic maps the canonical tool_choice to the Messages API
// tool_choice object.
func ToolChoiceToAnthropic(choice any) any {
	switch c := choice.(type) {
	case nil:
		return nil
	case string:
		switch c {
		case "auto":
			return map[string]any{"type": "auto"}
		case "none":
			return map[string]any{"type": "none"}
		case "required":
			return map[string]any{"type": "any"}
		}
		return nil
	default:
		if name := pinnedToolName(choice); name != "" {
			return map[string]any{"type": "tool", "name": name}
		}
		return nil
	}
}

// ToolChoiceToGemini maps the canonical tool_choice to a Gemini tool_config.
func ToolChoiceToGemini(choice any) *types.GeminiToolConfig {
	cfg := &types.GeminiFunctionCallingConfig{}
	switch c := choice.(type) {
	case nil:
		return nil
	case string:
		switch c {
		case "auto":
			cfg.Mode = "AUTO"
		case "none":
			cfg.Mode = "NONE"
		case "required":
			cfg.Mode = "ANY"
		default:
			return nil
		}
	default:
		name := pinnedToolName(choice)
		if name == "" {
			return nil
		}
		cfg.Mode = "ANY"
		cfg.AllowedFunctionNames = []string{name}
	}
	return &types.GeminiToolConfig{FunctionCallingConfig: cfg}
}
