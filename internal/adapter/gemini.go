package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qduc/chat-sub010/internal/sse"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/transform"
	"github.com/qduc/chat-sub010/internal/types"
	"github.com/qduc/chat-sub010/internal/upstream"
)

// GeminiAdapter serves the Google Gemini generateContent API: camelCase
// wire fields, contents/parts message model, synthesized tool-call IDs,
// and a model name baked into the URL path.
type GeminiAdapter struct {
	opts Options
}

// Name implements Adapter.
func (a *GeminiAdapter) Name() string { return "gemini" }

// BuildRequest implements Adapter.
func (a *GeminiAdapter) BuildRequest(ctx context.Context, req *types.ChatCompletionRequest) (*upstream.Request, error) {
	model, err := resolveModel(req, a.opts.DefaultModel)
	if err != nil {
		return nil, err
	}

	system, rest := transform.ExtractSystem(transform.FilterMessages(req.Messages))
	contents := transform.MessagesToGemini(ctx, a.opts.converter(), rest)
	if len(contents) == 0 {
		return nil, ErrEmptyConversation
	}

	payload := types.GeminiRequest{
		Contents:         contents,
		Tools:            transform.ToolsToGemini(transform.NormalizeTools(req.Tools)),
		ToolConfig:       transform.ToolChoiceToGemini(req.ToolChoice),
		GenerationConfig: a.generationConfig(req),
	}
	if system != "" {
		payload.SystemInstruction = &types.GeminiContent{
			Parts: []types.GeminiPart{{Text: system}},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	body = applyCustomParams(body, req)

	verb := "generateContent"
	if req.Stream {
		verb = "streamGenerateContent?alt=sse"
	}

	headers := http.Header{}
	if a.opts.APIKey != "" {
		headers.Set("x-goog-api-key", a.opts.APIKey)
	}

	return &upstream.Request{
		URL:     fmt.Sprintf("%s/v1beta/models/%s:%s", a.opts.BaseURL, model, verb),
		Headers: headers,
		Body:    body,
		Stream:  req.Stream,
	}, nil
}

// generationConfig maps canonical sampling fields onto Gemini's typed
// generationConfig block. Gemini rejects unknown top-level keys, so the
// usual sjson allowlist merge does not apply here.
func (a *GeminiAdapter) generationConfig(req *types.ChatCompletionRequest) *types.GeminiGenerationConfig {
	cfg := &types.GeminiGenerationConfig{}
	set := false

	if v, ok := req.Extra["temperature"]; ok {
		if f, ok := toFloat(v); ok {
			cfg.Temperature = &f
			set = true
		}
	}
	if v, ok := req.Extra["top_p"]; ok {
		if f, ok := toFloat(v); ok {
			cfg.TopP = &f
			set = true
		}
	}
	if n := extraInt(req, "max_tokens", "max_completion_tokens"); n > 0 {
		cfg.MaxOutputTokens = &n
		set = true
	}
	if stops := extraStrings(req, "stop"); len(stops) > 0 {
		cfg.StopSequences = stops
		set = true
	}

	if !set {
		return nil
	}
	return cfg
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// TranslateResponse implements Adapter.
func (a *GeminiAdapter) TranslateResponse(body []byte, model string) (*types.ChatCompletionResponse, error) {
	var wire types.GeminiResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	msg := types.ChatResponseMsg{Role: "assistant"}
	finish := "stop"

	if wire.PromptFeedback != nil && wire.PromptFeedback.BlockReason != "" {
		finish = "content_filter"
	}

	if len(wire.Candidates) > 0 {
		cand := wire.Candidates[0]
		var texts []string
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				switch {
				case part.FunctionCall != nil:
					args := "{}"
					if len(part.FunctionCall.Args) > 0 {
						args = stream.FinalizeArguments(string(part.FunctionCall.Args))
					}
					msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
						Index:    len(msg.ToolCalls),
						ID:       "call_" + uuid.NewString(),
						Type:     "function",
						Function: types.FunctionCall{Name: part.FunctionCall.Name, Arguments: args},
					})
				case part.Thought && part.Text != "":
					msg.Reasoning += part.Text
					msg.ReasoningDetails = append(msg.ReasoningDetails, map[string]any{
						"type": "thinking",
						"text": part.Text,
					})
				case part.Text != "":
					texts = append(texts, part.Text)
				}
			}
		}
		msg.Content = strings.Join(texts, "\n")
		if cand.FinishReason != "" {
			finish = sse.MapGeminiFinishReason(cand.FinishReason)
		}
	}
	if len(msg.ToolCalls) > 0 {
		finish = "tool_calls"
	}

	var usage *types.Usage
	if wire.UsageMetadata != nil {
		usage = &types.Usage{
			PromptTokens:     wire.UsageMetadata.PromptTokenCount,
			CompletionTokens: wire.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      wire.UsageMetadata.TotalTokenCount,
			ReasoningTokens:  wire.UsageMetadata.ThoughtsTokenCount,
		}
		if usage.TotalTokens == 0 {
			usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		}
	}

	out := &types.ChatCompletionResponse{
		ID:      newCompletionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.ChatChoice{{Index: 0, Message: msg, FinishReason: types.StringPtr(finish)}},
		Usage:   usage,
	}
	if wire.ModelVersion != "" {
		out.Model = wire.ModelVersion
	}
	return out, nil
}

// StreamTranslator implements Adapter.
func (a *GeminiAdapter) StreamTranslator(wr *sse.Writer) sse.Translator {
	return sse.NewGeminiTranslator(wr)
}
