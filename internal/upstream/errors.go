package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a non-2xx reply from a provider. The raw body is kept so
// callers can surface the original provider diagnostics.
type HTTPError struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

// Error implements error.
func (e *HTTPError) Error() string {
	status := fmt.Sprintf("%d", e.StatusCode)
	if text := http.StatusText(e.StatusCode); text != "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, text)
	}

	msg := ""
	switch {
	case e.Message() != "":
		msg = fmt.Sprintf("upstream returned HTTP %s: %s", status, e.Message())
	case len(e.Body) > 0:
		msg = fmt.Sprintf("upstream returned HTTP %s with unparsed body: %s", status, compactBodyPreview(e.Body, 280))
	default:
		msg = fmt.Sprintf("upstream returned HTTP %s with empty error body", status)
	}

	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request_id: %s)", msg, e.RequestID)
	}
	return msg
}

// Message extracts the provider's human-readable error message from the
// body, probing the common envelope shapes.
func (e *HTTPError) Message() string {
	trimmed := strings.TrimSpace(string(e.Body))
	if trimmed == "" {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return ""
	}
	return extractErrorMessage(payload)
}

func extractErrorMessage(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	if msg, ok := payload["message"].(string); ok && strings.TrimSpace(msg) != "" {
		return strings.TrimSpace(msg)
	}
	switch nested := payload["error"].(type) {
	case map[string]any:
		return extractErrorMessage(nested)
	case string:
		return strings.TrimSpace(nested)
	}
	// Gemini wraps errors in a list on batch endpoints.
	if list, ok := payload["errors"].([]any); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]any); ok {
			return extractErrorMessage(first)
		}
	}
	return ""
}

func compactBodyPreview(body []byte, limit int) string {
	preview := strings.Join(strings.Fields(string(body)), " ")
	if len(preview) > limit {
		preview = preview[:limit] + "..."
	}
	return preview
}

// extractRequestID pulls a provider request id from common header names.
func extractRequestID(headers http.Header) string {
	for _, key := range []string{
		"x-request-id",
		"request-id",
		"x-openai-request-id",
		"anthropic-request-id",
		"cf-ray",
	} {
		if v := strings.TrimSpace(headers.Get(key)); v != "" {
			return v
		}
	}
	return ""
}
