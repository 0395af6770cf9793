package sse

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGeminiTranslateStream(t *testing.T) {
	body := sseFrames(
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"plan first","thought":true}]},"index":0}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"The weather "}]},"index":0}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"is mild."}]},"index":0}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":4}}`,
		`{"candidates":[{"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":6,"totalTokenCount":16}}`,
	)

	frames, done := runTranslator(t, func(wr *Writer) Translator { return NewGeminiTranslator(wr) }, body)
	if done != 1 {
		t.Fatalf("[DONE] count: %d", done)
	}

	var content, reasoning string
	for _, frame := range frames {
		delta := frameDelta(t, frame)
		if c, ok := delta["content"].(string); ok {
			content += c
		}
		if r, ok := delta["reasoning"].(string); ok {
			reasoning += r
		}
	}
	if content != "The weather is mild." {
		t.Fatalf("content: %q", content)
	}
	if reasoning != "plan first" {
		t.Fatalf("reasoning: %q", reasoning)
	}

	terminal := frames[len(frames)-1]
	if frameFinish(terminal) != "stop" {
		t.Fatalf("terminal finish: %v", terminal)
	}
	usage, _ := terminal["usage"].(map[string]any)
	if usage == nil || usage["total_tokens"] != 16.0 {
		t.Fatalf("last usage snapshot must win: %v", usage)
	}
	details, _ := frameDelta(t, terminal)["reasoning_details"].([]any)
	if len(details) != 1 || details[0].(map[string]any)["type"] != "thinking" {
		t.Fatalf("reasoning_details: %v", terminal)
	}
}

func TestGeminiTranslateFunctionCall(t *testing.T) {
	body := sseFrames(
		`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"get_weather","args":{"city":"Paris"}}}]},"index":0}]}`,
		`{"candidates":[{"finishReason":"STOP","index":0}]}`,
	)

	frames, _ := runTranslator(t, func(wr *Writer) Translator { return NewGeminiTranslator(wr) }, body)

	id, name, args := collectToolArgs(t, frames, 0)
	if !strings.HasPrefix(id, "call_") {
		t.Fatalf("synthesized id: %q", id)
	}
	if name != "get_weather" {
		t.Fatalf("name: %q", name)
	}
	if !json.Valid([]byte(args)) {
		t.Fatalf("arguments not valid JSON: %q", args)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil || parsed["city"] != "Paris" {
		t.Fatalf("arguments content: %q", args)
	}

	if frameFinish(frames[len(frames)-1]) != "tool_calls" {
		t.Fatalf("terminal: %v", frames[len(frames)-1])
	}
}

func TestGeminiTranslateSafety(t *testing.T) {
	body := sseFrames(
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"I canno"}]},"index":0}]}`,
		`{"candidates":[{"finishReason":"SAFETY","index":0}]}`,
	)

	frames, _ := runTranslator(t, func(wr *Writer) Translator { return NewGeminiTranslator(wr) }, body)
	if frameFinish(frames[len(frames)-1]) != "content_filter" {
		t.Fatalf("terminal: %v", frames[len(frames)-1])
	}
}

func TestMapGeminiFinishReason(t *testing.T) {
	tests := map[string]string{
		"STOP":                    "stop",
		"OTHER":                   "stop",
		"MAX_TOKENS":              "length",
		"SAFETY":                  "content_filter",
		"RECITATION":              "content_filter",
		"MALFORMED_FUNCTION_CALL": "error",
		"SOMETHING_NEW":           "stop",
	}
	for in, want := range tests {
		if got := MapGeminiFinishReason(in); got != want {
			t.Fatalf("MapGeminiFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}
