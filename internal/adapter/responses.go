package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/qduc/chat-sub010/internal/sse"
	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/transform"
	"github.com/qduc/chat-sub010/internal/types"
	"github.com/qduc/chat-sub010/internal/upstream"
)

var responsesAllowlist = map[string]string{
	"temperature":           "temperature",
	"top_p":                 "top_p",
	"max_tokens":            "max_output_tokens",
	"max_completion_tokens": "max_output_tokens",
	"user":                  "user",
}

// ResponsesAdapter serves the OpenAI Responses API: item-based input,
// flat function-call items instead of nested tool_calls, and a
// fine-grained streaming event vocabulary.
type ResponsesAdapter struct {
	opts Options
}

// Name implements Adapter.
func (a *ResponsesAdapter) Name() string { return "responses" }

// BuildRequest implements Adapter.
func (a *ResponsesAdapter) BuildRequest(ctx context.Context, req *types.ChatCompletionRequest) (*upstream.Request, error) {
	model, err := resolveModel(req, a.opts.DefaultModel)
	if err != nil {
		return nil, err
	}

	instructions, rest := transform.ExtractSystem(transform.FilterMessages(req.Messages))
	input := transform.MessagesToResponsesInput(ctx, a.opts.converter(), rest)
	if len(input) == 0 {
		return nil, ErrEmptyConversation
	}

	payload := types.ResponsesRequest{
		Model:        model,
		Instructions: instructions,
		Input:        input,
		Tools:        transform.ToolsToResponses(transform.NormalizeTools(req.Tools)),
		ToolChoice:   transform.ToolChoiceToResponses(req.ToolChoice),
		Stream:       req.Stream,
	}
	if effort := reasoningEffort(req); effort != "" {
		payload.Reasoning = &types.ReasoningParam{Effort: effort}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	body = applyExtras(body, req, responsesAllowlist)
	body = applyCustomParams(body, req)

	headers := http.Header{}
	if a.opts.APIKey != "" {
		headers.Set("Authorization", "Bearer "+a.opts.APIKey)
	}

	return &upstream.Request{
		URL:     a.opts.BaseURL + "/responses",
		Headers: headers,
		Body:    body,
		Stream:  req.Stream,
	}, nil
}

// TranslateResponse implements Adapter.
func (a *ResponsesAdapter) TranslateResponse(body []byte, model string) (*types.ChatCompletionResponse, error) {
	var wire types.ResponsesResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}
	if wire.Status == "failed" && wire.Error != nil {
		return nil, fmt.Errorf("upstream response failed: %s", wire.Error.Message)
	}

	msg := types.ChatResponseMsg{Role: "assistant"}
	seenCalls := map[string]bool{}

	for _, item := range wire.Output {
		switch item.Type {
		case "message":
			for _, part := range item.Content {
				if t, ok := part["text"].(string); ok {
					msg.Content += t
				} else if t, ok := part["refusal"].(string); ok && msg.Content == "" {
					msg.Content = t
				}
			}
		case "function_call":
			id := item.CallID
			if id == "" {
				id = item.ID
			}
			if id == "" || seenCalls[id] {
				continue
			}
			seenCalls[id] = true
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				Index: len(msg.ToolCalls),
				ID:    id,
				Type:  "function",
				Function: types.FunctionCall{
					Name:      item.Name,
					Arguments: stream.FinalizeArguments(item.Arguments),
				},
			})
		case "reasoning":
			for _, part := range item.Summary {
				if t, ok := part["text"].(string); ok && t != "" {
					msg.Reasoning += t
					msg.ReasoningDetails = append(msg.ReasoningDetails, map[string]any{
						"type": "reasoning.summary",
						"text": t,
					})
				}
			}
		}
	}

	// Some deployments surface pending tool calls through required_action
	// instead of (or in addition to) output items.
	if wire.RequiredAction != nil && wire.RequiredAction.SubmitToolOutputs != nil {
		for _, raw := range wire.RequiredAction.SubmitToolOutputs.ToolCalls {
			id, _ := raw["id"].(string)
			if id == "" || seenCalls[id] {
				continue
			}
			fn, _ := raw["function"].(map[string]any)
			name, _ := fn["name"].(string)
			args, _ := fn["arguments"].(string)
			seenCalls[id] = true
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				Index:    len(msg.ToolCalls),
				ID:       id,
				Type:     "function",
				Function: types.FunctionCall{Name: name, Arguments: stream.FinalizeArguments(args)},
			})
		}
	}

	if msg.Content == "" && len(msg.ToolCalls) == 0 {
		msg.Content = firstOutputText(body)
	}

	finish := "stop"
	switch {
	case len(msg.ToolCalls) > 0:
		finish = "tool_calls"
	case wire.Status == "incomplete":
		if wire.IncompleteDetails != nil {
			finish = mapIncompleteFinish(wire.IncompleteDetails.Reason)
		} else {
			finish = "length"
		}
	}

	out := &types.ChatCompletionResponse{
		ID:      wire.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.ChatChoice{{Index: 0, Message: msg, FinishReason: types.StringPtr(finish)}},
		Usage:   stream.UsageFromMap(wire.Usage),
	}
	if out.ID == "" {
		out.ID = newCompletionID()
	}
	if wire.Model != "" {
		out.Model = wire.Model
	}
	return out, nil
}

func mapIncompleteFinish(reason string) string {
	switch reason {
	case "max_output_tokens", "max_tokens":
		return "length"
	case "content_filter":
		return "content_filter"
	}
	return "stop"
}

// firstOutputText is a last-resort scrape for assistant text when the
// shape of the output array is unfamiliar. Bounded depth keeps hostile
// payloads from recursing forever.
func firstOutputText(body []byte) string {
	return searchOutputText(gjson.GetBytes(body, "output"), 0)
}

func searchOutputText(v gjson.Result, depth int) string {
	if depth > 6 {
		return ""
	}
	var found string
	v.ForEach(func(key, value gjson.Result) bool {
		if key.Str == "text" && value.Type == gjson.String && value.Str != "" {
			found = value.Str
			return false
		}
		if value.IsObject() || value.IsArray() {
			if s := searchOutputText(value, depth+1); s != "" {
				found = s
				return false
			}
		}
		return true
	})
	return found
}

// StreamTranslator implements Adapter.
func (a *ResponsesAdapter) StreamTranslator(wr *sse.Writer) sse.Translator {
	return sse.NewResponsesTranslator(wr)
}
