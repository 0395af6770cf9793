package transform

import (
	"context"

	"github.com/qduc/chat-sub010/internal/convert"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
)

// MessagesToResponsesInput converts canonical messages to Responses API
// input items. System messages are expected to be extracted into
// instructions beforehand; any remaining ones are skipped here.
//
// Assistant tool calls become top-level function_call items emitted before
// any trailing assistant text content; tool results become
// function_call_output items keyed by call_id.
func MessagesToResponsesInput(ctx context.Context, conv convert.ContentPartConverter, messages []types.ChatMessage) []types.ResponsesInputItem {
	var items []types.ResponsesInputItem

	for _, msg := range FilterMessages(messages) {
		switch msg.Role {
		case "system":
			continue

		case "tool":
			callID := msg.ToolCallID
			if callID == "" {
				callID = msg.Name
			}
			if callID == "" {
				continue
			}
			items = append(items, types.ResponsesInputItem{
				Type:   "function_call_output",
				CallID: callID,
				Output: types.ContentText(msg.Content),
			})

		case "assistant":
			for _, tc := range msg.ToolCalls {
				if tc.Type != "" && tc.Type != "function" {
					continue
				}
				if tc.ID == "" || tc.Function.Name == "" {
					continue
				}
				items = append(items, types.ResponsesInputItem{
					Type:      "function_call",
					Name:      tc.Function.Name,
					Arguments: stream.FinalizeArguments(tc.Function.Arguments),
					CallID:    tc.ID,
				})
			}
			if content := responsesContent(ctx, conv, msg); len(content) > 0 {
				items = append(items, types.ResponsesInputItem{
					Type:    "message",
					Role:    "assistant",
					Content: content,
				})
			}

		case "user":
			if content := responsesContent(ctx, conv, msg); len(content) > 0 {
				items = append(items, types.ResponsesInputItem{
					Type:    "message",
					Role:    "user",
					Content: content,
				})
			}
		}
	}

	return items
}

// responsesContent converts message content to Responses content items,
// tagging text parts by origin: what the model said is output_text, what
// the user sent is input_text.
func responsesContent(ctx context.Context, conv convert.ContentPartConverter, msg types.ChatMessage) []types.ResponsesContent {
	parts := ConvertParts(ctx, conv, types.ParseContentParts(msg.Content))

	var out []types.ResponsesContent
	for _, p := range parts {
		switch p.Type {
		case "text", "input_text", "output_text":
			kind := "input_text"
			if msg.Role == "assistant" {
				kind = "output_text"
			}
			out = append(out, types.ResponsesContent{Type: kind, Text: p.Text})
		case "image_url", "input_image":
			if p.ImageURL != nil {
				out = append(out, types.ResponsesContent{Type: "input_image", ImageURL: p.ImageURL.URL})
			}
		}
	}
	return out
}
