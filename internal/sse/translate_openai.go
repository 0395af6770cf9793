package sse

import (
	"io"
	"log/slog"
	"strings"

	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
)

// OpenAITranslator normalizes an OpenAI-compatible Chat Completions chunk
// stream. The upstream grammar is already canonical-shaped; this translator
// re-stamps identity fields, de-duplicates tool-call fragments through the
// accumulator so only changed fields are re-emitted, and guarantees the
// single terminal chunk + [DONE] contract even when the upstream omits it.
type OpenAITranslator struct {
	wr           *Writer
	reasoningBuf strings.Builder
}

// NewOpenAITranslator creates a translator writing through wr.
func NewOpenAITranslator(wr *Writer) *OpenAITranslator {
	return &OpenAITranslator{wr: wr}
}

// Translate implements Translator.
func (t *OpenAITranslator) Translate(r *stream.Reader) {
	st := t.wr.State

	for {
		evt, err := r.Next()
		if err == io.EOF {
			t.finish()
			return
		}
		if err != nil {
			slog.Warn("upstream stream error", "provider", "openai", "error", err)
			return
		}

		if id, ok := evt.Data["id"].(string); ok && id != "" {
			st.ID = id
		}
		if usage, ok := evt.Data["usage"].(map[string]any); ok {
			if u := stream.UsageFromMap(usage); u != nil {
				st.Usage = u
			}
		}

		choices, _ := evt.Data["choices"].([]any)
		if len(choices) == 0 {
			continue
		}
		choice, _ := choices[0].(map[string]any)
		if choice == nil {
			continue
		}

		if reason, ok := choice["finish_reason"].(string); ok && reason != "" {
			st.FinishReason = reason
		}

		delta, _ := choice["delta"].(map[string]any)
		if delta == nil {
			continue
		}

		if content, _ := delta["content"].(string); content != "" {
			t.wr.Delta(types.ChatDelta{Content: content})
		}
		if refusal, _ := delta["refusal"].(string); refusal != "" {
			t.wr.Delta(types.ChatDelta{Refusal: refusal})
		}

		reasoning := stringOr(delta, "reasoning_content", "reasoning")
		if reasoning != "" {
			t.reasoningBuf.WriteString(reasoning)
			t.wr.Delta(types.ChatDelta{Reasoning: reasoning, ReasoningContent: reasoning})
		}

		if rawCalls, ok := delta["tool_calls"].([]any); ok {
			t.applyToolCalls(rawCalls)
		}
	}
}

func (t *OpenAITranslator) finish() {
	if text := t.reasoningBuf.String(); text != "" {
		t.wr.State.Reasoning.AddText("reasoning.text", text)
		t.reasoningBuf.Reset()
	}
	t.wr.Finish(t.wr.State.FinalFinishReason())
}

func (t *OpenAITranslator) applyToolCalls(rawCalls []any) {
	st := t.wr.State
	for _, raw := range rawCalls {
		call, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		idx := types.IntFromAny(call["index"])
		id, _ := call["id"].(string)
		var name, args string
		if fn, ok := call["function"].(map[string]any); ok {
			name, _ = fn["name"].(string)
			args, _ = fn["arguments"].(string)
		}
		if tc, changed := st.Tools.Update(idx, id, name, args); changed {
			t.wr.Delta(types.ChatDelta{ToolCalls: []types.ToolCall{tc}})
		}
	}
}
