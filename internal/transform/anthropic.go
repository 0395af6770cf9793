package transform

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/qduc/chat-sub010/internal/convert"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
)

// MessagesToAnthropic converts canonical messages to Anthropic Messages API
// turns. System messages must be extracted into the request-level system
// field beforehand. An assistant message with tool calls becomes a single
// turn with embedded tool_use blocks; a tool result becomes a user turn
// with one tool_result block referencing the call id.
func MessagesToAnthropic(ctx context.Context, conv convert.ContentPartConverter, messages []types.ChatMessage) []types.AnthropicMessage {
	var out []types.AnthropicMessage

	for _, msg := range FilterMessages(messages) {
		switch msg.Role {
		case "system":
			continue

		case "tool":
			if msg.ToolCallID == "" {
				continue
			}
			out = append(out, types.AnthropicMessage{
				Role: "user",
				Content: []types.AnthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   types.ContentText(msg.Content),
				}},
			})

		case "assistant":
			blocks := anthropicBlocks(ctx, conv, msg)
			for _, tc := range msg.ToolCalls {
				if tc.Type != "" && tc.Type != "function" {
					continue
				}
				if tc.ID == "" || tc.Function.Name == "" {
					continue
				}
				blocks = append(blocks, types.AnthropicContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Function.Name,
					Input: json.RawMessage(stream.FinalizeArguments(tc.Function.Arguments)),
				})
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, types.AnthropicMessage{Role: "assistant", Content: blocks})

		case "user":
			blocks := anthropicBlocks(ctx, conv, msg)
			if len(blocks) == 0 {
				continue
			}
			out = append(out, types.AnthropicMessage{Role: "user", Content: blocks})
		}
	}

	return out
}

func anthropicBlocks(ctx context.Context, conv convert.ContentPartConverter, msg types.ChatMessage) []types.AnthropicContentBlock {
	parts := ConvertParts(ctx, conv, types.ParseContentParts(msg.Content))

	var blocks []types.AnthropicContentBlock
	for _, p := range parts {
		switch p.Type {
		case "text", "input_text", "output_text":
			block := types.AnthropicContentBlock{Type: "text", Text: p.Text}
			if msg.CacheControl != nil {
				block.CacheControl = msg.CacheControl
			}
			blocks = append(blocks, block)
		case "image_url", "input_image":
			if p.ImageURL == nil {
				continue
			}
			if source := anthropicImageSource(p.ImageURL.URL); source != nil {
				blocks = append(blocks, types.AnthropicContentBlock{Type: "image", Source: source})
			}
		}
	}
	return blocks
}

// anthropicImageSource splits a data URL into media type + base64 payload,
// or references a remote URL directly.
func anthropicImageSource(url string) *types.AnthropicImageSource {
	if strings.HasPrefix(url, "data:") {
		rest := strings.TrimPrefix(url, "data:")
		sep := strings.Index(rest, ";base64,")
		if sep < 0 {
			return nil
		}
		return &types.AnthropicImageSource{
			Type:      "base64",
			MediaType: rest[:sep],
			Data:      rest[sep+len(";base64,"):],
		}
	}
	return &types.AnthropicImageSource{Type: "url", URL: url}
}
