package sse

import (
	"strings"
	"testing"

	"github.com/qduc/chat-sub010/internal/stream"
)

func runTranslator(t *testing.T, mk func(*Writer) Translator, body string) ([]map[string]any, int) {
	t.Helper()
	wr, rec := newTestWriter()
	mk(wr).Translate(stream.NewReader(strings.NewReader(body)))
	return parseFrames(t, rec.Body.String())
}

func sseFrames(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: ")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return b.String()
}

// collectToolArgs concatenates the tool-call argument fragments emitted
// for one canonical index, verifying the append-only contract as it goes.
func collectToolArgs(t *testing.T, frames []map[string]any, index float64) (id, name, args string) {
	t.Helper()
	for _, frame := range frames {
		delta := frameDelta(t, frame)
		calls, _ := delta["tool_calls"].([]any)
		for _, raw := range calls {
			call := raw.(map[string]any)
			if call["index"] != index {
				continue
			}
			if v, ok := call["id"].(string); ok && v != "" {
				if id != "" {
					t.Fatalf("tool call id emitted twice: %v", frame)
				}
				id = v
			}
			if fn, ok := call["function"].(map[string]any); ok {
				if v, ok := fn["name"].(string); ok && v != "" {
					if name != "" {
						t.Fatalf("tool call name emitted twice: %v", frame)
					}
					name = v
				}
				if v, ok := fn["arguments"].(string); ok {
					args += v
				}
			}
		}
	}
	return id, name, args
}

func TestAnthropicTranslateToolCallStream(t *testing.T) {
	body := sseFrames(
		`{"type":"message_start","message":{"id":"msg_up_1","usage":{"input_tokens":25}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Let me check."}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"Paris\"}"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":30}}`,
		`{"type":"message_stop"}`,
	)

	frames, done := runTranslator(t, func(wr *Writer) Translator { return NewAnthropicTranslator(wr) }, body)
	if done != 1 {
		t.Fatalf("[DONE] count: %d", done)
	}

	if frameDelta(t, frames[0])["role"] != "assistant" {
		t.Fatalf("role not announced first: %v", frames[0])
	}
	if frames[0]["id"] != "msg_up_1" {
		t.Fatalf("upstream id not adopted: %v", frames[0])
	}

	var content string
	for _, frame := range frames {
		if c, ok := frameDelta(t, frame)["content"].(string); ok {
			content += c
		}
	}
	if content != "Let me check." {
		t.Fatalf("content: %q", content)
	}

	id, name, args := collectToolArgs(t, frames, 0)
	if id != "toolu_1" || name != "get_weather" {
		t.Fatalf("tool identity: id=%q name=%q", id, name)
	}
	if args != `{"city":"Paris"}` {
		t.Fatalf("accumulated arguments: %q", args)
	}

	terminal := frames[len(frames)-1]
	if frameFinish(terminal) != "tool_calls" {
		t.Fatalf("terminal finish reason: %v", terminal)
	}
	usage, _ := terminal["usage"].(map[string]any)
	if usage == nil || usage["prompt_tokens"] != 25.0 || usage["completion_tokens"] != 30.0 || usage["total_tokens"] != 55.0 {
		t.Fatalf("usage: %v", usage)
	}
}

func TestAnthropicTranslateThinking(t *testing.T) {
	body := sseFrames(
		`{"type":"message_start","message":{"id":"msg_up_2"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"step one "}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"step two"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig-abc"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Answer."}}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		`{"type":"message_stop"}`,
	)

	frames, _ := runTranslator(t, func(wr *Writer) Translator { return NewAnthropicTranslator(wr) }, body)

	var reasoning string
	for _, frame := range frames {
		if r, ok := frameDelta(t, frame)["reasoning"].(string); ok {
			reasoning += r
		}
	}
	if reasoning != "step one step two" {
		t.Fatalf("streamed reasoning: %q", reasoning)
	}

	terminal := frames[len(frames)-1]
	if frameFinish(terminal) != "stop" {
		t.Fatalf("finish: %v", terminal)
	}
	details, _ := frameDelta(t, terminal)["reasoning_details"].([]any)
	if len(details) != 1 {
		t.Fatalf("reasoning_details: %v", terminal)
	}
	detail := details[0].(map[string]any)
	if detail["type"] != "thinking" || detail["text"] != "step one step two" {
		t.Fatalf("detail: %v", detail)
	}
	if detail["signature"] != "sig-abc" {
		t.Fatalf("signature not carried into detail: %v", detail)
	}
}

func TestAnthropicTranslateErrorEvent(t *testing.T) {
	body := sseFrames(
		`{"type":"message_start","message":{"id":"msg_up_3"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"part"}}`,
		`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
	)

	frames, done := runTranslator(t, func(wr *Writer) Translator { return NewAnthropicTranslator(wr) }, body)
	if done != 1 {
		t.Fatalf("[DONE] count: %d", done)
	}

	var sawError bool
	for _, frame := range frames {
		if errObj, ok := frame["error"].(map[string]any); ok {
			sawError = true
			if errObj["message"] != "Overloaded" {
				t.Fatalf("error frame: %v", frame)
			}
		}
	}
	if !sawError {
		t.Fatal("no error frame emitted")
	}
	if frameFinish(frames[len(frames)-1]) != "error" {
		t.Fatalf("terminal: %v", frames[len(frames)-1])
	}
}

func TestAnthropicTranslateTransportFailure(t *testing.T) {
	// stream cut mid-way with no [DONE] and no message_stop: translator
	// emits what it saw and finishes on EOF.
	body := sseFrames(
		`{"type":"message_start","message":{"id":"msg_up_4"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"partial"}}`,
	)

	frames, done := runTranslator(t, func(wr *Writer) Translator { return NewAnthropicTranslator(wr) }, body)
	if done != 1 {
		t.Fatalf("[DONE] count: %d", done)
	}
	if frameFinish(frames[len(frames)-1]) != "stop" {
		t.Fatalf("terminal: %v", frames[len(frames)-1])
	}
}
