package sse

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
)

// GeminiTranslator rewrites Gemini streamGenerateContent chunks (alt=sse)
// into canonical chat completion chunks. Gemini frames carry no event type;
// each frame is a partial GenerateContentResponse.
type GeminiTranslator struct {
	wr        *Writer
	nextIndex int
}

// NewGeminiTranslator creates a translator writing through wr.
func NewGeminiTranslator(wr *Writer) *GeminiTranslator {
	return &GeminiTranslator{wr: wr}
}

// Translate implements Translator.
func (t *GeminiTranslator) Translate(r *stream.Reader) {
	st := t.wr.State

	for {
		evt, err := r.Next()
		if err == io.EOF {
			t.wr.Finish(st.FinalFinishReason())
			return
		}
		if err != nil {
			slog.Warn("upstream stream error", "provider", "gemini", "error", err)
			return
		}

		var chunk types.GeminiResponse
		if err := json.Unmarshal(evt.Raw, &chunk); err != nil {
			continue
		}

		if chunk.UsageMetadata != nil {
			st.Usage = &types.Usage{
				PromptTokens:     chunk.UsageMetadata.PromptTokenCount,
				CompletionTokens: chunk.UsageMetadata.CandidatesTokenCount,
				TotalTokens:      chunk.UsageMetadata.TotalTokenCount,
				ReasoningTokens:  chunk.UsageMetadata.ThoughtsTokenCount,
			}
			if st.Usage.TotalTokens == 0 {
				st.Usage.TotalTokens = st.Usage.PromptTokens + st.Usage.CompletionTokens
			}
		}

		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
			st.FinishReason = "content_filter"
		}

		if len(chunk.Candidates) == 0 {
			continue
		}
		candidate := chunk.Candidates[0]

		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				t.emitPart(part)
			}
		}
		if candidate.FinishReason != "" {
			st.FinishReason = MapGeminiFinishReason(candidate.FinishReason)
		}
	}
}

func (t *GeminiTranslator) emitPart(part types.GeminiPart) {
	st := t.wr.State

	if part.Text != "" {
		if part.Thought {
			st.Reasoning.AddText("thinking", part.Text)
			t.wr.Delta(types.ChatDelta{Reasoning: part.Text, ReasoningContent: part.Text})
			return
		}
		t.wr.Delta(types.ChatDelta{Content: part.Text})
		return
	}

	if part.FunctionCall != nil {
		idx := t.nextIndex
		t.nextIndex++
		args := stream.FinalizeArguments(string(part.FunctionCall.Args))
		callID := "call_" + uuid.NewString()
		if tc, changed := st.Tools.Update(idx, callID, part.FunctionCall.Name, args); changed {
			t.wr.Delta(types.ChatDelta{ToolCalls: []types.ToolCall{tc}})
		}
	}
}

// MapGeminiFinishReason converts a Gemini finishReason to the canonical
// finish reason vocabulary.
func MapGeminiFinishReason(reason string) string {
	switch reason {
	case "STOP", "OTHER":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return "content_filter"
	case "MALFORMED_FUNCTION_CALL":
		return "error"
	}
	return "stop"
}
