package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qduc/chat-sub010/internal/sse"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/transform"
	"github.com/qduc/chat-sub010/internal/types"
	"github.com/qduc/chat-sub010/internal/upstream"
)

// openAIAllowlist gates which passthrough fields reach an
// OpenAI-compatible chat completions payload.
var openAIAllowlist = map[string]string{
	"temperature":           "temperature",
	"top_p":                 "top_p",
	"seed":                  "seed",
	"stop":                  "stop",
	"max_tokens":            "max_tokens",
	"max_completion_tokens": "max_completion_tokens",
	"frequency_penalty":     "frequency_penalty",
	"presence_penalty":      "presence_penalty",
	"logit_bias":            "logit_bias",
	"user":                  "user",
	"verbosity":             "verbosity",
	"response_format":       "response_format",
}

// OpenAIAdapter serves OpenAI-compatible Chat Completions upstreams.
// The wire format is already canonical-shaped, so translation is mostly
// normalization: invariants on message content and tool arguments, usage
// field names, and stream chunk hygiene.
type OpenAIAdapter struct {
	opts Options
}

// Name implements Adapter.
func (a *OpenAIAdapter) Name() string { return "openai" }

type openAIPayload struct {
	Model             string               `json:"model"`
	Messages          []types.ChatMessage  `json:"messages"`
	Stream            bool                 `json:"stream,omitempty"`
	StreamOptions     *types.StreamOptions `json:"stream_options,omitempty"`
	Tools             []types.ChatTool     `json:"tools,omitempty"`
	ToolChoice        any                  `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool                `json:"parallel_tool_calls,omitempty"`
	ReasoningEffort   string               `json:"reasoning_effort,omitempty"`
}

// BuildRequest implements Adapter.
func (a *OpenAIAdapter) BuildRequest(ctx context.Context, req *types.ChatCompletionRequest) (*upstream.Request, error) {
	model, err := resolveModel(req, a.opts.DefaultModel)
	if err != nil {
		return nil, err
	}

	messages := a.normalizeMessages(ctx, req.Messages)
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}

	payload := openAIPayload{
		Model:             model,
		Messages:          messages,
		Stream:            req.Stream,
		Tools:             transform.NormalizeTools(req.Tools),
		ToolChoice:        req.ToolChoice,
		ParallelToolCalls: req.ParallelToolCalls,
		ReasoningEffort:   reasoningEffort(req),
	}
	if req.Stream {
		payload.StreamOptions = &types.StreamOptions{IncludeUsage: true}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	body = applyExtras(body, req, openAIAllowlist)
	body = applyCustomParams(body, req)

	headers := http.Header{}
	if a.opts.APIKey != "" {
		headers.Set("Authorization", "Bearer "+a.opts.APIKey)
	}

	return &upstream.Request{
		URL:     a.opts.BaseURL + "/chat/completions",
		Headers: headers,
		Body:    body,
		Stream:  req.Stream,
	}, nil
}

// normalizeMessages filters unusable messages, runs multimodal parts
// through the converter, and enforces the content-presence invariant on
// tool-calling assistant turns. Provider-agnostic decoration fields
// (reasoning_details, cache_control) are not forwarded.
func (a *OpenAIAdapter) normalizeMessages(ctx context.Context, messages []types.ChatMessage) []types.ChatMessage {
	conv := a.opts.converter()

	var out []types.ChatMessage
	for _, msg := range transform.FilterMessages(messages) {
		msg.ReasoningDetails = nil
		msg.CacheControl = nil

		switch content := msg.Content.(type) {
		case string, nil:
			// keep as-is
		default:
			parts := transform.ConvertParts(ctx, conv, types.ParseContentParts(content))
			if len(parts) == 0 {
				msg.Content = ""
			} else {
				msg.Content = parts
			}
		}

		for i := range msg.ToolCalls {
			msg.ToolCalls[i].Type = "function"
			msg.ToolCalls[i].Function.Arguments = stream.FinalizeArguments(msg.ToolCalls[i].Function.Arguments)
		}
		if len(msg.ToolCalls) > 0 && msg.Content == nil {
			msg.Content = ""
		}
		if msg.Content == nil && len(msg.ToolCalls) == 0 && msg.Role != "tool" {
			continue
		}
		out = append(out, msg)
	}
	return out
}

type openAIResponseWire struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role             string           `json:"role"`
			Content          string           `json:"content"`
			Refusal          string           `json:"refusal"`
			ToolCalls        []types.ToolCall `json:"tool_calls"`
			Reasoning        string           `json:"reasoning"`
			ReasoningContent string           `json:"reasoning_content"`
		} `json:"message"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]any `json:"usage"`
}

// TranslateResponse implements Adapter.
func (a *OpenAIAdapter) TranslateResponse(body []byte, model string) (*types.ChatCompletionResponse, error) {
	var wire openAIResponseWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	out := &types.ChatCompletionResponse{
		ID:      wire.ID,
		Object:  "chat.completion",
		Created: wire.Created,
		Model:   wire.Model,
		Usage:   stream.UsageFromMap(wire.Usage),
	}
	if out.ID == "" {
		out.ID = newCompletionID()
	}
	if out.Created == 0 {
		out.Created = time.Now().Unix()
	}
	if out.Model == "" {
		out.Model = model
	}

	msg := types.ChatResponseMsg{Role: "assistant"}
	finish := types.StringPtr("stop")
	if len(wire.Choices) > 0 {
		choice := wire.Choices[0]
		msg.Content = choice.Message.Content
		if msg.Content == "" && choice.Message.Refusal != "" {
			msg.Content = choice.Message.Refusal
		}
		msg.Reasoning = choice.Message.Reasoning
		if msg.Reasoning == "" {
			msg.Reasoning = choice.Message.ReasoningContent
		}
		for _, tc := range choice.Message.ToolCalls {
			tc.Type = "function"
			tc.Function.Arguments = stream.FinalizeArguments(tc.Function.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, tc)
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			finish = choice.FinishReason
		}
	}
	if len(msg.ToolCalls) > 0 {
		finish = types.StringPtr("tool_calls")
	}

	out.Choices = []types.ChatChoice{{Index: 0, Message: msg, FinishReason: finish}}
	return out, nil
}

// StreamTranslator implements Adapter.
func (a *OpenAIAdapter) StreamTranslator(wr *sse.Writer) sse.Translator {
	return sse.NewOpenAITranslator(wr)
}
