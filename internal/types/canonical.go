package types

import "encoding/json"

// --- Canonical request types ---

// knownRequestKeys are the top-level fields decoded into typed struct fields.
// Everything else lands in Extra and is subject to per-provider allow-listing.
var knownRequestKeys = []string{
	"model", "messages", "stream", "stream_options", "tools", "tool_choice",
	"parallel_tool_calls", "reasoning", "reasoning_effort",
	"custom_request_params", "provider",
}

// ChatCompletionRequest is the canonical inbound chat completion request.
// It is OpenAI Chat Completions shaped regardless of which upstream provider
// ultimately serves it.
type ChatCompletionRequest struct {
	Model             string            `json:"model,omitempty"`
	Messages          []ChatMessage     `json:"messages,omitempty"`
	Stream            bool              `json:"stream,omitempty"`
	StreamOptions     *StreamOptions    `json:"stream_options,omitempty"`
	Tools             []json.RawMessage `json:"tools,omitempty"`
	ToolChoice        any               `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool             `json:"parallel_tool_calls,omitempty"`
	Reasoning         *ReasoningParam   `json:"reasoning,omitempty"`
	ReasoningEffort   string            `json:"reasoning_effort,omitempty"`

	// CustomRequestParams is merged into the provider payload last, after
	// allow-listing, and may not override structural fields.
	CustomRequestParams map[string]any `json:"custom_request_params,omitempty"`

	// Provider selects the adapter family. It is a reserved routing key and
	// is never forwarded upstream.
	Provider string `json:"provider,omitempty"`

	// Extra holds the remaining top-level fields (temperature, top_p, seed,
	// stop, max_tokens variants, ...) for per-provider allow-listed copying.
	Extra map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and captures every unrecognized
// top-level key into Extra.
func (r *ChatCompletionRequest) UnmarshalJSON(data []byte) error {
	type alias ChatCompletionRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range knownRequestKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		a.Extra = raw
	}

	*r = ChatCompletionRequest(a)
	return nil
}

// ChatMessage is a canonical conversation message.
// Invariant: when ToolCalls is non-empty, Content is present (possibly an
// empty string or array), never absent from the wire representation.
type ChatMessage struct {
	Role             string           `json:"role"`
	Content          any              `json:"content"`
	Name             string           `json:"name,omitempty"`
	ToolCallID       string           `json:"tool_call_id,omitempty"`
	ToolCalls        []ToolCall       `json:"tool_calls,omitempty"`
	ReasoningDetails []map[string]any `json:"reasoning_details,omitempty"`
	CacheControl     map[string]any   `json:"cache_control,omitempty"`
}

// ContentPart is one element of a multimodal content array. Exactly one
// payload field is set per variant.
type ContentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ImageURL   *ImageURL   `json:"image_url,omitempty"`
	InputAudio *InputAudio `json:"input_audio,omitempty"`
}

// ImageURL holds an image URL reference.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// InputAudio holds inline audio data.
type InputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format,omitempty"`
}

// ChatTool is a canonical tool spec in the OpenAI function format.
type ChatTool struct {
	Type     string       `json:"type"`
	Function *FunctionDef `json:"function,omitempty"`
}

// FunctionDef defines a function tool.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ToolCall represents a tool call in a message or delta.
// Invariant: Function.Arguments is always a syntactically valid JSON string.
type ToolCall struct {
	Index    int          `json:"index"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the function name and arguments string.
type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

// StreamOptions holds stream-specific options.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// ReasoningParam is the nested reasoning request shape.
type ReasoningParam struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// --- Canonical response types ---

// ChatCompletionResponse is the non-streaming canonical response.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// ChatChoice is a single choice in a non-streaming response.
type ChatChoice struct {
	Index        int             `json:"index"`
	Message      ChatResponseMsg `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}

// ChatResponseMsg is the assistant message in a non-streaming choice.
type ChatResponseMsg struct {
	Role             string           `json:"role"`
	Content          string           `json:"content"`
	ToolCalls        []ToolCall       `json:"tool_calls,omitempty"`
	Reasoning        string           `json:"reasoning,omitempty"`
	ReasoningDetails []map[string]any `json:"reasoning_details,omitempty"`
}

// ChatCompletionChunk is a canonical streaming chunk.
type ChatCompletionChunk struct {
	ID      string            `json:"id"`
	Object  string            `json:"object"`
	Created int64             `json:"created"`
	Model   string            `json:"model"`
	Choices []ChatChunkChoice `json:"choices"`
	Usage   *Usage            `json:"usage,omitempty"`
}

// ChatChunkChoice is a single choice in a streaming chunk.
type ChatChunkChoice struct {
	Index        int       `json:"index"`
	Delta        ChatDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
}

// ChatDelta holds the delta content in a streaming chunk choice.
type ChatDelta struct {
	Role             string           `json:"role,omitempty"`
	Content          string           `json:"content,omitempty"`
	Refusal          string           `json:"refusal,omitempty"`
	ToolCalls        []ToolCall       `json:"tool_calls,omitempty"`
	Reasoning        string           `json:"reasoning,omitempty"`
	ReasoningContent string           `json:"reasoning_content,omitempty"`
	ReasoningDetails []map[string]any `json:"reasoning_details,omitempty"`
}

// Usage holds canonical token usage. TotalTokens is the upstream-reported
// value when present, otherwise the sum of prompt and completion tokens.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	ReasoningTokens  int `json:"reasoning_tokens,omitempty"`
}

// ErrorResponse wraps an API error in the canonical envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail holds the error message and optional machine-readable type.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}
