package proxy

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// The official openai-go client is the strictest consumer of the
// canonical surface we emit, so these tests drive the full server
// through it instead of hand-rolled HTTP requests.

func newSDKSmokeServer(t *testing.T, up *fakeUpstream) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestServer(up).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newOpenAISDKClient(baseURL string) openai.Client {
	return openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey("test-key"),
	)
}

func TestOpenAIGoSDKSmokeChatCompletions(t *testing.T) {
	up := newFakeUpstream(t)
	up.respondJSON("/chat/completions", `{
		"id": "chatcmpl-sdk",
		"created": 1700000000,
		"model": "gpt-4o",
		"choices": [{"index":0,"message":{"role":"assistant","content":"SDK chat works"},"finish_reason":"stop"}],
		"usage": {"prompt_tokens":4,"completion_tokens":3,"total_tokens":7}
	}`)

	httpSrv := newSDKSmokeServer(t, up)
	client := newOpenAISDKClient(httpSrv.URL + "/v1")

	out, err := client.Chat.Completions.New(context.Background(), openai.ChatCompletionNewParams{
		Model: shared.ChatModel("gpt-4o"),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("hello from sdk"),
		},
	})
	if err != nil {
		t.Fatalf("sdk chat completion failed: %v", err)
	}

	if len(out.Choices) == 0 {
		t.Fatalf("expected non-empty choices, got: %+v", out)
	}
	if got := out.Choices[0].Message.Content; !strings.Contains(got, "SDK chat works") {
		t.Fatalf("unexpected content: %q", got)
	}
	if out.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected usage: %+v", out.Usage)
	}
}

func TestOpenAIGoSDKSmokeStreamingToolCallAcrossProviders(t *testing.T) {
	up := newFakeUpstream(t)
	up.respondSSE("/v1/messages", "data: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_sdk\"}}\n\n"+
		"data: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"tool_use\",\"id\":\"toolu_1\",\"name\":\"get_weather\"}}\n\n"+
		"data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"input_json_delta\",\"partial_json\":\"{\\\"city\\\":\"}}\n\n"+
		"data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"input_json_delta\",\"partial_json\":\"\\\"Paris\\\"}\"}}\n\n"+
		"data: {\"type\":\"content_block_stop\",\"index\":0}\n\n"+
		"data: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"tool_use\"},\"usage\":{\"output_tokens\":9}}\n\n"+
		"data: {\"type\":\"message_stop\"}\n\n")

	httpSrv := newSDKSmokeServer(t, up)
	client := newOpenAISDKClient(httpSrv.URL + "/v1")

	stream := client.Chat.Completions.NewStreaming(context.Background(), openai.ChatCompletionNewParams{
		Model: shared.ChatModel("anthropic/claude-sonnet-4"),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("weather in Paris"),
		},
		Tools: []openai.ChatCompletionToolUnionParam{
			openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
				Name: "get_weather",
				Parameters: shared.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"city": map[string]any{"type": "string"},
					},
				},
			}),
		},
	})

	var toolName, toolArgs string
	var sawToolFinish bool
	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.FinishReason == "tool_calls" {
				sawToolFinish = true
			}
			for _, tc := range choice.Delta.ToolCalls {
				toolName += tc.Function.Name
				toolArgs += tc.Function.Arguments
			}
		}
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("chat stream failed: %v", err)
	}
	if toolName != "get_weather" {
		t.Fatalf("tool name: %q", toolName)
	}
	if toolArgs != `{"city":"Paris"}` {
		t.Fatalf("tool arguments: %q", toolArgs)
	}
	if !sawToolFinish {
		t.Fatal("expected tool_calls finish_reason in sdk stream")
	}
}
