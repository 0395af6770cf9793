package transform

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/qduc/chat-sub010/internal/convert"
	"github.com/qduc/chat-sub010/internal/types"
)

// MessagesToGemini converts canonical messages to Gemini contents.
// Role mapping: user → user, assistant → model, tool → user turn with a
// functionResponse part. The function name for a tool result is recovered
// by scanning prior assistant tool calls for the matching id.
func MessagesToGemini(ctx context.Context, conv convert.ContentPartConverter, messages []types.ChatMessage) []types.GeminiContent {
	filtered := FilterMessages(messages)

	var contents []types.GeminiContent
	for _, msg := range filtered {
		switch msg.Role {
		case "system":
			continue

		case "tool":
			contents = append(contents, types.GeminiContent{
				Role: "user",
				Parts: []types.GeminiPart{{
					FunctionResponse: &types.GeminiFunctionResponse{
						Name:     ToolNameForCall(filtered, msg.ToolCallID),
						Response: geminiFunctionResponseBody(msg.Content),
					},
				}},
			})

		case "assistant":
			turn := types.GeminiContent{Role: "model"}
			for _, tc := range msg.ToolCalls {
				if tc.Type != "" && tc.Type != "function" {
					continue
				}
				if tc.Function.Name == "" {
					continue
				}
				args := json.RawMessage(tc.Function.Arguments)
				if !json.Valid(args) {
					args = json.RawMessage("{}")
				}
				turn.Parts = append(turn.Parts, types.GeminiPart{
					FunctionCall: &types.GeminiFunctionCall{Name: tc.Function.Name, Args: args},
				})
			}
			turn.Parts = append(turn.Parts, geminiParts(ctx, conv, msg)...)
			if len(turn.Parts) > 0 {
				contents = append(contents, turn)
			}

		case "user":
			parts := geminiParts(ctx, conv, msg)
			if len(parts) > 0 {
				contents = append(contents, types.GeminiContent{Role: "user", Parts: parts})
			}
		}
	}
	return contents
}

func geminiParts(ctx context.Context, conv convert.ContentPartConverter, msg types.ChatMessage) []types.GeminiPart {
	parts := ConvertParts(ctx, conv, types.ParseContentParts(msg.Content))

	var out []types.GeminiPart
	for _, p := range parts {
		switch p.Type {
		case "text", "input_text", "output_text":
			out = append(out, types.GeminiPart{Text: p.Text})
		case "image_url", "input_image":
			if p.ImageURL == nil {
				continue
			}
			if part, ok := geminiMediaPart(p.ImageURL.URL, "image/png"); ok {
				out = append(out, part)
			}
		case "input_audio":
			if p.InputAudio == nil {
				continue
			}
			mime := "audio/wav"
			if p.InputAudio.Format != "" {
				mime = "audio/" + p.InputAudio.Format
			}
			out = append(out, types.GeminiPart{
				InlineData: &types.GeminiInlineData{MimeType: mime, Data: p.InputAudio.Data},
			})
		}
	}
	return out
}

// geminiMediaPart renders a URL as inlineData (for data URLs) or fileData.
func geminiMediaPart(url, fallbackMime string) (types.GeminiPart, bool) {
	if strings.HasPrefix(url, "data:") {
		rest := strings.TrimPrefix(url, "data:")
		sep := strings.Index(rest, ";base64,")
		if sep < 0 {
			return types.GeminiPart{}, false
		}
		return types.GeminiPart{
			InlineData: &types.GeminiInlineData{
				MimeType: rest[:sep],
				Data:     rest[sep+len(";base64,"):],
			},
		}, true
	}
	return types.GeminiPart{
		FileData: &types.GeminiFileData{MimeType: fallbackMime, FileURI: url},
	}, true
}

// geminiFunctionResponseBody coerces a tool result into the JSON object
// Gemini requires. Non-object results are wrapped under "result".
func geminiFunctionResponseBody(content any) json.RawMessage {
	text := types.ContentText(content)
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	wrapped, _ := json.Marshal(map[string]string{"result": text})
	return wrapped
}
