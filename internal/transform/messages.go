package transform

import (
	"context"
	"strings"

	"github.com/qduc/chat-sub010/internal/convert"
	"github.com/qduc/chat-sub010/internal/types"
)

// knownRoles gates message filtering: messages with no recognizable role
// never reach a provider payload.
var knownRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
	"tool":      true,
}

// FilterMessages drops messages without a recognizable role and normalizes
// role casing.
func FilterMessages(messages []types.ChatMessage) []types.ChatMessage {
	var out []types.ChatMessage
	for _, msg := range messages {
		role := strings.TrimSpace(strings.ToLower(msg.Role))
		if !knownRoles[role] {
			continue
		}
		msg.Role = role
		out = append(out, msg)
	}
	return out
}

// ExtractSystem splits system messages out of the turn list for providers
// without a system role in the message array. The system texts are joined
// with newlines; the returned list holds the remaining turns.
func ExtractSystem(messages []types.ChatMessage) (string, []types.ChatMessage) {
	var systems []string
	var rest []types.ChatMessage
	for _, msg := range messages {
		if msg.Role == "system" {
			if text := types.ContentText(msg.Content); text != "" {
				systems = append(systems, text)
			}
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(systems, "\n"), rest
}

// ConvertParts runs each content part through the converter collaborator,
// dropping parts the converter rejects.
func ConvertParts(ctx context.Context, conv convert.ContentPartConverter, parts []types.ContentPart) []types.ContentPart {
	if conv == nil {
		return parts
	}
	var out []types.ContentPart
	for _, p := range parts {
		if converted, ok := conv.Convert(ctx, p); ok {
			out = append(out, converted)
		}
	}
	return out
}

// ToolNameForCall recovers the function name for a tool result by scanning
// prior assistant tool calls for a matching id. When history is incomplete
// the name falls back to "unknown_tool".
func ToolNameForCall(messages []types.ChatMessage, toolCallID string) string {
	if toolCallID != "" {
		for _, msg := range messages {
			if msg.Role != "assistant" {
				continue
			}
			for _, tc := range msg.ToolCalls {
				if tc.ID == toolCallID && tc.Function.Name != "" {
					return tc.Function.Name
				}
			}
		}
	}
	return "unknown_tool"
}
