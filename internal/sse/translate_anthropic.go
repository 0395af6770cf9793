package sse

import (
	"io"
	"log/slog"
	"strings"

	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
)

// AnthropicTranslator rewrites Anthropic Messages API events into canonical
// chat completion chunks.
//
// Anthropic SSE lifecycle:
//
//	message_start → content_block_start → content_block_delta(s) →
//	content_block_stop → message_delta → message_stop
type AnthropicTranslator struct {
	wr *Writer

	// blockIndex maps Anthropic content-block indexes of tool_use blocks
	// onto canonical tool-call indexes.
	blockIndex map[int]int
	nextIndex  int

	// thinkingBuf accumulates thinking deltas per open block;
	// thinkingSig holds each block's signature once it arrives.
	thinkingBuf map[int]*strings.Builder
	thinkingSig map[int]string

	inputTokens  int
	outputTokens int
}

// NewAnthropicTranslator creates a translator writing through wr.
func NewAnthropicTranslator(wr *Writer) *AnthropicTranslator {
	return &AnthropicTranslator{
		wr:          wr,
		blockIndex:  map[int]int{},
		thinkingBuf: map[int]*strings.Builder{},
		thinkingSig: map[int]string{},
	}
}

// Translate implements Translator.
func (t *AnthropicTranslator) Translate(r *stream.Reader) {
	st := t.wr.State

	for {
		evt, err := r.Next()
		if err == io.EOF {
			t.finish()
			return
		}
		if err != nil {
			slog.Warn("upstream stream error", "provider", "anthropic", "error", err)
			return
		}

		switch evt.Type {
		case "message_start":
			if msg, ok := evt.Data["message"].(map[string]any); ok {
				if id, ok := msg["id"].(string); ok && id != "" {
					st.ID = id
				}
				if usage, ok := msg["usage"].(map[string]any); ok {
					t.inputTokens = types.IntFromAny(usage["input_tokens"])
				}
			}

		case "content_block_start":
			blockIdx := types.IntFromAny(evt.Data["index"])
			block, _ := evt.Data["content_block"].(map[string]any)
			if blockType, _ := block["type"].(string); blockType == "tool_use" {
				idx := t.nextIndex
				t.nextIndex++
				t.blockIndex[blockIdx] = idx
				id, _ := block["id"].(string)
				name, _ := block["name"].(string)
				if tc, changed := st.Tools.Update(idx, id, name, ""); changed {
					t.wr.Delta(types.ChatDelta{ToolCalls: []types.ToolCall{tc}})
				}
			}

		case "content_block_delta":
			blockIdx := types.IntFromAny(evt.Data["index"])
			delta, _ := evt.Data["delta"].(map[string]any)
			switch deltaType, _ := delta["type"].(string); deltaType {
			case "text_delta":
				if text, _ := delta["text"].(string); text != "" {
					t.wr.Delta(types.ChatDelta{Content: text})
				}
			case "input_json_delta":
				partial, _ := delta["partial_json"].(string)
				idx, ok := t.blockIndex[blockIdx]
				if !ok || partial == "" {
					continue
				}
				if tc, changed := st.Tools.Update(idx, "", "", partial); changed {
					t.wr.Delta(types.ChatDelta{ToolCalls: []types.ToolCall{tc}})
				}
			case "thinking_delta":
				if text, _ := delta["thinking"].(string); text != "" {
					buf := t.thinkingBuf[blockIdx]
					if buf == nil {
						buf = &strings.Builder{}
						t.thinkingBuf[blockIdx] = buf
					}
					buf.WriteString(text)
					t.wr.Delta(types.ChatDelta{Reasoning: text, ReasoningContent: text})
				}
			case "signature_delta":
				if sig, _ := delta["signature"].(string); sig != "" {
					t.thinkingSig[blockIdx] += sig
				}
			}

		case "content_block_stop":
			t.flushThinking(types.IntFromAny(evt.Data["index"]))

		case "message_delta":
			if delta, ok := evt.Data["delta"].(map[string]any); ok {
				if reason, _ := delta["stop_reason"].(string); reason != "" {
					st.FinishReason = MapAnthropicStopReason(reason)
				}
			}
			if usage, ok := evt.Data["usage"].(map[string]any); ok {
				t.outputTokens = types.IntFromAny(usage["output_tokens"])
			}

		case "message_stop":
			t.finish()
			return

		case "error":
			msg := "upstream stream error"
			if e, ok := evt.Data["error"].(map[string]any); ok {
				if m, ok := e["message"].(string); ok && m != "" {
					msg = m
				}
			}
			t.wr.Fail(msg)
			return
		}
	}
}

// flushThinking records a closed thinking block as a reasoning detail,
// keeping its signature when one streamed in.
func (t *AnthropicTranslator) flushThinking(blockIdx int) {
	buf, ok := t.thinkingBuf[blockIdx]
	if !ok {
		return
	}
	detail := map[string]any{"type": "thinking", "text": buf.String()}
	if sig := t.thinkingSig[blockIdx]; sig != "" {
		detail["signature"] = sig
	}
	t.wr.State.Reasoning.Add(detail)
	delete(t.thinkingBuf, blockIdx)
	delete(t.thinkingSig, blockIdx)
}

func (t *AnthropicTranslator) finish() {
	st := t.wr.State
	for blockIdx := range t.thinkingBuf {
		t.flushThinking(blockIdx)
	}
	if t.inputTokens != 0 || t.outputTokens != 0 {
		st.Usage = &types.Usage{
			PromptTokens:     t.inputTokens,
			CompletionTokens: t.outputTokens,
			TotalTokens:      t.inputTokens + t.outputTokens,
		}
	}
	t.wr.Finish(st.FinalFinishReason())
}

func MapAnthropicStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "tool_use":
		return "tool_calls"
	case "refusal":
		return "content_filter"
	}
	return "stop"
}
