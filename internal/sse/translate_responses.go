package sse

import (
	"io"
	"log/slog"
	"strings"

	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
)

// ResponsesTranslator rewrites OpenAI Responses API events into canonical
// chat completion chunks.
type ResponsesTranslator struct {
	wr *Writer

	// itemIndex maps Responses item/call IDs onto canonical tool-call
	// indexes, assigned in first-seen order.
	itemIndex map[string]int
	nextIndex int

	reasoningBuf strings.Builder
}

// NewResponsesTranslator creates a translator writing through wr.
func NewResponsesTranslator(wr *Writer) *ResponsesTranslator {
	return &ResponsesTranslator{wr: wr, itemIndex: map[string]int{}}
}

// Translate implements Translator.
func (t *ResponsesTranslator) Translate(r *stream.Reader) {
	st := t.wr.State

	for {
		evt, err := r.Next()
		if err == io.EOF {
			t.finish()
			return
		}
		if err != nil {
			// Mid-stream transport failure: abort the downstream without a
			// synthetic finish chunk.
			slog.Warn("upstream stream error", "provider", "responses", "error", err)
			return
		}

		if resp, ok := evt.Data["response"].(map[string]any); ok {
			if id, ok := resp["id"].(string); ok && id != "" {
				st.ID = id
			}
		}

		switch evt.Type {
		case "response.output_text.delta", "response.refusal.delta":
			delta, _ := evt.Data["delta"].(string)
			if delta != "" {
				t.wr.Delta(types.ChatDelta{Content: delta})
			}

		case "response.output_item.added":
			item, _ := evt.Data["item"].(map[string]any)
			if itemType, _ := item["type"].(string); itemType == "function_call" {
				t.onFunctionCallItem(item)
			}

		case "response.function_call_arguments.delta":
			itemID := stringOr(evt.Data, "item_id", "call_id", "id")
			delta, _ := evt.Data["delta"].(string)
			if itemID == "" || delta == "" {
				continue
			}
			idx, ok := t.itemIndex[itemID]
			if !ok {
				idx = t.allocIndex(itemID)
			}
			if tc, changed := st.Tools.Update(idx, "", "", delta); changed {
				t.wr.Delta(types.ChatDelta{ToolCalls: []types.ToolCall{tc}})
			}

		case "response.output_item.done":
			item, _ := evt.Data["item"].(map[string]any)
			switch itemType, _ := item["type"].(string); itemType {
			case "function_call":
				// Late id/name resolution only; accumulated arguments are
				// never re-sent.
				t.onFunctionCallItem(item)
			case "reasoning":
				t.collectReasoningItem(item)
			}

		case "response.error", "response.failed":
			t.wr.Fail(extractFailureMessage(evt.Data))
			return

		case "response.incomplete":
			if resp, ok := evt.Data["response"].(map[string]any); ok {
				st.FinishReason = mapIncompleteReason(resp)
				if usage, ok := resp["usage"].(map[string]any); ok {
					st.Usage = stream.UsageFromMap(usage)
				}
			}
			t.finish()
			return

		case "response.completed":
			if resp, ok := evt.Data["response"].(map[string]any); ok {
				if usage, ok := resp["usage"].(map[string]any); ok {
					st.Usage = stream.UsageFromMap(usage)
				}
			}
			t.finish()
			return

		default:
			// Any reasoning-flavored delta streams as reasoning content and
			// feeds the reasoning-detail set.
			if strings.Contains(evt.Type, "reasoning") && strings.HasSuffix(evt.Type, ".delta") {
				delta, _ := evt.Data["delta"].(string)
				if delta != "" {
					t.reasoningBuf.WriteString(delta)
					t.wr.Delta(types.ChatDelta{Reasoning: delta, ReasoningContent: delta})
				}
			}
		}
	}
}

func (t *ResponsesTranslator) onFunctionCallItem(item map[string]any) {
	st := t.wr.State
	callID := stringOr(item, "call_id", "id")
	if callID == "" {
		return
	}
	itemID, _ := item["id"].(string)

	// Argument deltas key off the item id and may have landed before
	// this announcement; reuse their index rather than splitting one
	// call across two.
	idx, ok := t.itemIndex[callID]
	if !ok && itemID != "" {
		idx, ok = t.itemIndex[itemID]
	}
	if !ok {
		idx = t.allocIndex(callID)
	}
	t.itemIndex[callID] = idx
	if itemID != "" {
		t.itemIndex[itemID] = idx
	}
	name, _ := item["name"].(string)
	if tc, changed := st.Tools.Update(idx, callID, name, ""); changed {
		t.wr.Delta(types.ChatDelta{ToolCalls: []types.ToolCall{tc}})
	}
}

func (t *ResponsesTranslator) allocIndex(key string) int {
	idx := t.nextIndex
	t.nextIndex++
	t.itemIndex[key] = idx
	return idx
}

func (t *ResponsesTranslator) collectReasoningItem(item map[string]any) {
	summary, _ := item["summary"].([]any)
	for _, raw := range summary {
		if part, ok := raw.(map[string]any); ok {
			t.wr.State.Reasoning.Add(part)
		}
	}
}

func (t *ResponsesTranslator) finish() {
	if text := t.reasoningBuf.String(); text != "" {
		t.wr.State.Reasoning.AddText("reasoning.text", text)
		t.reasoningBuf.Reset()
	}
	t.wr.Finish(t.wr.State.FinalFinishReason())
}

func extractFailureMessage(data map[string]any) string {
	if resp, ok := data["response"].(map[string]any); ok {
		if e, ok := resp["error"].(map[string]any); ok {
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	if e, ok := data["error"].(map[string]any); ok {
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return "upstream response failed"
}

func mapIncompleteReason(resp map[string]any) string {
	details, _ := resp["incomplete_details"].(map[string]any)
	reason, _ := details["reason"].(string)
	switch reason {
	case "max_output_tokens", "max_tokens":
		return "length"
	case "content_filter":
		return "content_filter"
	}
	return "stop"
}

func stringOr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
