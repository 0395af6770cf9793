// Package adapter implements bidirectional translation between the
// canonical chat completion contract and each upstream provider family:
// OpenAI-compatible Chat Completions, OpenAI Responses, Anthropic Messages
// and Google Gemini. One adapter instance is stateless and safe for
// concurrent use; all per-stream state lives in stream.State.
package adapter

import (
	"context"

	"github.com/qduc/chat-sub010/internal/convert"
	"github.com/qduc/chat-sub010/internal/sse"
	"github.com/qduc/chat-sub010/internal/types"
	"github.com/qduc/chat-sub010/internal/upstream"
)

// Options configures one adapter instance.
type Options struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	Converter    convert.ContentPartConverter
}

func (o Options) converter() convert.ContentPartConverter {
	if o.Converter != nil {
		return o.Converter
	}
	return convert.Passthrough{}
}

// Adapter translates canonical requests, responses and streams for one
// provider family.
type Adapter interface {
	// Name returns the provider family identifier.
	Name() string

	// BuildRequest assembles the provider-native HTTP request from a
	// canonical request. Fails with ErrMissingModel when neither the
	// request nor the configured default yields a model, and with
	// ErrEmptyConversation when message normalization leaves no usable
	// turns.
	BuildRequest(ctx context.Context, req *types.ChatCompletionRequest) (*upstream.Request, error)

	// TranslateResponse converts a completed provider response body into
	// the canonical response shape. Pure and safe for concurrent use.
	TranslateResponse(body []byte, model string) (*types.ChatCompletionResponse, error)

	// StreamTranslator returns the streaming state machine that rewrites
	// this provider's live event stream through wr.
	StreamTranslator(wr *sse.Writer) sse.Translator
}

// New constructs the adapter for a provider family name.
func New(name string, opts Options) (Adapter, bool) {
	switch name {
	case "openai":
		return &OpenAIAdapter{opts: opts}, true
	case "responses":
		return &ResponsesAdapter{opts: opts}, true
	case "anthropic":
		return &AnthropicAdapter{opts: opts}, true
	case "gemini":
		return &GeminiAdapter{opts: opts}, true
	}
	return nil, false
}
