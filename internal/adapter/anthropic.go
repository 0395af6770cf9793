package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qduc/chat-sub010/internal/sse"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/transform"
	"github.com/qduc/chat-sub010/internal/types"
	"github.com/qduc/chat-sub010/internal/upstream"
)

const (
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 4096
)

var anthropicAllowlist = map[string]string{
	"temperature": "temperature",
	"top_p":       "top_p",
	"top_k":       "top_k",
}

// AnthropicAdapter serves the Anthropic Messages API: system prompt as a
// top-level field, content-block messages, tool results folded into user
// turns, and a mandatory max_tokens.
type AnthropicAdapter struct {
	opts Options
}

// Name implements Adapter.
func (a *AnthropicAdapter) Name() string { return "anthropic" }

// BuildRequest implements Adapter.
func (a *AnthropicAdapter) BuildRequest(ctx context.Context, req *types.ChatCompletionRequest) (*upstream.Request, error) {
	model, err := resolveModel(req, a.opts.DefaultModel)
	if err != nil {
		return nil, err
	}

	system, rest := transform.ExtractSystem(transform.FilterMessages(req.Messages))
	messages := transform.MessagesToAnthropic(ctx, a.opts.converter(), rest)
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}

	maxTokens := extraInt(req, "max_tokens", "max_completion_tokens")
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	payload := types.AnthropicRequest{
		Model:         model,
		System:        system,
		Messages:      messages,
		Tools:         transform.ToolsToAnthropic(transform.NormalizeTools(req.Tools)),
		ToolChoice:    transform.ToolChoiceToAnthropic(req.ToolChoice),
		MaxTokens:     maxTokens,
		Stream:        req.Stream,
		StopSequences: extraStrings(req, "stop"),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	body = applyExtras(body, req, anthropicAllowlist)
	body = applyCustomParams(body, req)

	headers := http.Header{}
	headers.Set("anthropic-version", anthropicVersion)
	if a.opts.APIKey != "" {
		headers.Set("x-api-key", a.opts.APIKey)
	}

	return &upstream.Request{
		URL:     a.opts.BaseURL + "/v1/messages",
		Headers: headers,
		Body:    body,
		Stream:  req.Stream,
	}, nil
}

// TranslateResponse implements Adapter.
func (a *AnthropicAdapter) TranslateResponse(body []byte, model string) (*types.ChatCompletionResponse, error) {
	var wire types.AnthropicResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	msg := types.ChatResponseMsg{Role: "assistant"}
	var texts []string
	for _, block := range wire.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				texts = append(texts, block.Text)
			}
		case "tool_use":
			args := "{}"
			if len(block.Input) > 0 {
				args = stream.FinalizeArguments(string(block.Input))
			}
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				Index:    len(msg.ToolCalls),
				ID:       block.ID,
				Type:     "function",
				Function: types.FunctionCall{Name: block.Name, Arguments: args},
			})
		case "thinking":
			if block.Thinking != "" {
				msg.Reasoning += block.Thinking
				detail := map[string]any{"type": "thinking", "text": block.Thinking}
				if block.Signature != "" {
					detail["signature"] = block.Signature
				}
				msg.ReasoningDetails = append(msg.ReasoningDetails, detail)
			}
		}
	}
	msg.Content = strings.Join(texts, "")

	finish := sse.MapAnthropicStopReason(wire.StopReason)
	if len(msg.ToolCalls) > 0 {
		finish = "tool_calls"
	}

	var usage *types.Usage
	if wire.Usage != nil {
		usage = &types.Usage{
			PromptTokens:     wire.Usage.InputTokens,
			CompletionTokens: wire.Usage.OutputTokens,
			TotalTokens:      wire.Usage.InputTokens + wire.Usage.OutputTokens,
		}
	}

	out := &types.ChatCompletionResponse{
		ID:      wire.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.ChatChoice{{Index: 0, Message: msg, FinishReason: types.StringPtr(finish)}},
		Usage:   usage,
	}
	if out.ID == "" {
		out.ID = newCompletionID()
	}
	if wire.Model != "" {
		out.Model = wire.Model
	}
	return out, nil
}

// StreamTranslator implements Adapter.
func (a *AnthropicAdapter) StreamTranslator(wr *sse.Writer) sse.Translator {
	return sse.NewAnthropicTranslator(wr)
}
