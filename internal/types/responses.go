package types

// --- OpenAI Responses API wire types (request phase) ---

// ResponsesRequest is the payload sent to POST /v1/responses.
type ResponsesRequest struct {
	Model        string               `json:"model"`
	Instructions string               `json:"instructions,omitempty"`
	Input        []ResponsesInputItem `json:"input"`
	Tools        []ResponsesTool      `json:"tools,omitempty"`
	ToolChoice   any                  `json:"tool_choice,omitempty"`
	Stream       bool                 `json:"stream,omitempty"`
	Reasoning    *ReasoningParam      `json:"reasoning,omitempty"`
}

// ResponsesInputItem is a single item in the Responses API input array.
// Flat discriminated union: Type determines which fields are relevant.
type ResponsesInputItem struct {
	Type      string             `json:"type"`
	Role      string             `json:"role,omitempty"`
	Content   []ResponsesContent `json:"content,omitempty"`
	Name      string             `json:"name,omitempty"`
	Arguments string             `json:"arguments,omitempty"`
	CallID    string             `json:"call_id,omitempty"`
	Output    string             `json:"output,omitempty"`
}

// ResponsesContent is a content element of a Responses API input message.
type ResponsesContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// ResponsesTool is a tool in the flat Responses API format.
type ResponsesTool struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Strict      *bool  `json:"strict,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// --- Responses API wire types (response phase) ---

// ResponsesResponse is the completed (non-streaming) response envelope.
type ResponsesResponse struct {
	ID                string                `json:"id"`
	Model             string                `json:"model,omitempty"`
	Status            string                `json:"status,omitempty"`
	Output            []ResponsesOutputItem `json:"output,omitempty"`
	Usage             map[string]any        `json:"usage,omitempty"`
	IncompleteDetails *IncompleteDetails    `json:"incomplete_details,omitempty"`
	RequiredAction    *RequiredAction       `json:"required_action,omitempty"`
	Error             *ResponsesError       `json:"error,omitempty"`
}

// ResponsesOutputItem is one item of the response output array.
type ResponsesOutputItem struct {
	Type      string           `json:"type"`
	ID        string           `json:"id,omitempty"`
	Role      string           `json:"role,omitempty"`
	Status    string           `json:"status,omitempty"`
	Content   []map[string]any `json:"content,omitempty"`
	Summary   []map[string]any `json:"summary,omitempty"`
	Name      string           `json:"name,omitempty"`
	Arguments string           `json:"arguments,omitempty"`
	CallID    string           `json:"call_id,omitempty"`
}

// IncompleteDetails explains why a response stopped early.
type IncompleteDetails struct {
	Reason string `json:"reason,omitempty"`
}

// RequiredAction carries tool calls the caller must satisfy.
type RequiredAction struct {
	Type              string             `json:"type,omitempty"`
	SubmitToolOutputs *SubmitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

// SubmitToolOutputs lists the pending tool calls.
type SubmitToolOutputs struct {
	ToolCalls []map[string]any `json:"tool_calls,omitempty"`
}

// ResponsesError is the error object inside a failed response.
type ResponsesError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
