package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestGeminiBuildRequest(t *testing.T) {
	a := &GeminiAdapter{opts: Options{BaseURL: "https://gl.example", APIKey: "g-key"}}

	req := decodeRequest(t, `{
		"model": "gemini-2.5-pro",
		"messages": [
			{"role":"system","content":"Be brief."},
			{"role":"user","content":"hi"}
		],
		"temperature": 0.7,
		"max_tokens": 512,
		"stop": "END",
		"tools": [{"type":"function","function":{"name":"lookup","parameters":{"type":"object"}}}],
		"tool_choice": "none"
	}`)

	up, err := a.BuildRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if up.URL != "https://gl.example/v1beta/models/gemini-2.5-pro:generateContent" {
		t.Fatalf("url: %q", up.URL)
	}
	if got := up.Headers.Get("x-goog-api-key"); got != "g-key" {
		t.Fatalf("api key header: %q", got)
	}

	body := string(up.Body)
	if gjson.Get(body, "systemInstruction.parts.0.text").String() != "Be brief." {
		t.Fatalf("systemInstruction: %s", body)
	}
	if gjson.Get(body, "generationConfig.temperature").Float() != 0.7 {
		t.Fatalf("temperature: %s", body)
	}
	if gjson.Get(body, "generationConfig.maxOutputTokens").Int() != 512 {
		t.Fatalf("maxOutputTokens: %s", body)
	}
	if gjson.Get(body, "generationConfig.stopSequences.0").String() != "END" {
		t.Fatalf("stopSequences: %s", body)
	}
	if gjson.Get(body, "tools.0.functionDeclarations.0.name").String() != "lookup" {
		t.Fatalf("tools: %s", body)
	}
	if gjson.Get(body, "toolConfig.functionCallingConfig.mode").String() != "NONE" {
		t.Fatalf("toolConfig: %s", body)
	}
	// no flat sampling keys at the top level
	if gjson.Get(body, "temperature").Exists() || gjson.Get(body, "max_tokens").Exists() {
		t.Fatalf("flat sampling keys leaked: %s", body)
	}
}

func TestGeminiBuildRequestStreamURL(t *testing.T) {
	a := &GeminiAdapter{opts: Options{BaseURL: "https://gl.example"}}
	req := decodeRequest(t, `{"model":"gemini-2.5-flash","messages":[{"role":"user","content":"hi"}],"stream":true}`)

	up, err := a.BuildRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if !strings.HasSuffix(up.URL, ":streamGenerateContent?alt=sse") {
		t.Fatalf("stream url: %q", up.URL)
	}
	if !up.Stream {
		t.Fatal("stream flag not set")
	}
}

func TestGeminiTranslateResponse(t *testing.T) {
	a := &GeminiAdapter{}
	body := `{
		"candidates": [{
			"content": {"role": "model", "parts": [
				{"text": "reasoning step", "thought": true},
				{"text": "The answer"},
				{"functionCall": {"name": "lookup", "args": {"q": "x"}}}
			]},
			"finishReason": "STOP",
			"index": 0
		}],
		"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5, "thoughtsTokenCount": 3},
		"modelVersion": "gemini-2.5-pro-001"
	}`

	out, err := a.TranslateResponse([]byte(body), "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("TranslateResponse failed: %v", err)
	}

	msg := out.Choices[0].Message
	if msg.Content != "The answer" {
		t.Fatalf("content: %q", msg.Content)
	}
	if msg.Reasoning != "reasoning step" {
		t.Fatalf("reasoning: %q", msg.Reasoning)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Function.Name != "lookup" {
		t.Fatalf("tool calls: %+v", msg.ToolCalls)
	}
	if !strings.HasPrefix(msg.ToolCalls[0].ID, "call_") {
		t.Fatalf("synthesized call id: %q", msg.ToolCalls[0].ID)
	}
	if *out.Choices[0].FinishReason != "tool_calls" {
		t.Fatalf("finish_reason: %q", *out.Choices[0].FinishReason)
	}
	if out.Usage == nil || out.Usage.TotalTokens != 17 || out.Usage.ReasoningTokens != 3 {
		t.Fatalf("usage: %+v", out.Usage)
	}
	if out.Model != "gemini-2.5-pro-001" {
		t.Fatalf("model: %q", out.Model)
	}
}

func TestGeminiTranslateResponseSafetyBlock(t *testing.T) {
	a := &GeminiAdapter{}

	out, err := a.TranslateResponse([]byte(`{
		"candidates": [{"finishReason": "SAFETY", "index": 0}],
		"usageMetadata": {"promptTokenCount": 8, "totalTokenCount": 8}
	}`), "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("TranslateResponse failed: %v", err)
	}
	if *out.Choices[0].FinishReason != "content_filter" {
		t.Fatalf("finish_reason: %q", *out.Choices[0].FinishReason)
	}

	out, err = a.TranslateResponse([]byte(`{
		"promptFeedback": {"blockReason": "SAFETY"}
	}`), "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("TranslateResponse failed: %v", err)
	}
	if *out.Choices[0].FinishReason != "content_filter" {
		t.Fatalf("prompt block finish_reason: %q", *out.Choices[0].FinishReason)
	}
}
