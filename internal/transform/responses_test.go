package transform

import (
	"context"
	"testing"

	"github.com/qduc/chat-sub010/internal/types"
)

func toolLoopMessages() []types.ChatMessage {
	return []types.ChatMessage{
		{Role: "user", Content: "What's the weather in Paris?"},
		{Role: "assistant", Content: "Checking.", ToolCalls: []types.ToolCall{
			{ID: "call_1", Type: "function", Function: types.FunctionCall{
				Name: "get_weather", Arguments: `{"city":"Paris"}`,
			}},
		}},
		{Role: "tool", ToolCallID: "call_1", Content: `{"temp_c":18}`},
		{Role: "user", Content: "And tomorrow?"},
	}
}

func TestMessagesToResponsesInputToolLoop(t *testing.T) {
	items := MessagesToResponsesInput(context.Background(), nil, toolLoopMessages())

	want := []string{"message", "function_call", "message", "function_call_output", "message"}
	if len(items) != len(want) {
		t.Fatalf("items: got %d want %d: %+v", len(items), len(want), items)
	}
	for i, kind := range want {
		if items[i].Type != kind {
			t.Fatalf("item %d: got %q want %q", i, items[i].Type, kind)
		}
	}

	call := items[1]
	if call.CallID != "call_1" || call.Name != "get_weather" || call.Arguments != `{"city":"Paris"}` {
		t.Fatalf("function_call item: %+v", call)
	}

	result := items[3]
	if result.CallID != "call_1" || result.Output != `{"temp_c":18}` {
		t.Fatalf("function_call_output item: %+v", result)
	}

	// assistant text rendered as output_text, user text as input_text
	if items[2].Content[0].Type != "output_text" {
		t.Fatalf("assistant content type: %q", items[2].Content[0].Type)
	}
	if items[0].Content[0].Type != "input_text" {
		t.Fatalf("user content type: %q", items[0].Content[0].Type)
	}
}

func TestMessagesToResponsesInputToolResultWithoutCallID(t *testing.T) {
	items := MessagesToResponsesInput(context.Background(), nil, []types.ChatMessage{
		{Role: "tool", Name: "get_weather", Content: "sunny"},
		{Role: "tool", Content: "orphaned"},
	})
	if len(items) != 1 {
		t.Fatalf("items: got %d want 1: %+v", len(items), items)
	}
	if items[0].CallID != "get_weather" {
		t.Fatalf("name fallback: %+v", items[0])
	}
}

func TestMessagesToResponsesInputMultimodal(t *testing.T) {
	items := MessagesToResponsesInput(context.Background(), nil, []types.ChatMessage{
		{Role: "user", Content: []any{
			map[string]any{"type": "text", "text": "What is this?"},
			map[string]any{"type": "image_url", "image_url": map[string]any{"url": "https://example.com/cat.png"}},
		}},
	})
	if len(items) != 1 || len(items[0].Content) != 2 {
		t.Fatalf("items: %+v", items)
	}
	if items[0].Content[1].Type != "input_image" || items[0].Content[1].ImageURL != "https://example.com/cat.png" {
		t.Fatalf("image content: %+v", items[0].Content[1])
	}
}
