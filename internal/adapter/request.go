package adapter

import (
	"github.com/google/uuid"
	"github.com/qduc/chat-sub010/internal/types"
	"github.com/tidwall/sjson"
)

// newCompletionID mints an identifier for responses whose upstream did
// not supply one.
func newCompletionID() string {
	return "chatcmpl-" + uuid.NewString()
}

// reservedRequestKeys are internal routing/bookkeeping fields that must
// never leak into a provider payload.
var reservedRequestKeys = map[string]bool{
	"provider":        true,
	"provider_id":     true,
	"conversation_id": true,
	"session_id":      true,
	"system_prompt":   true,
	"systemPrompt":    true,
	"internal":        true,
}

// structuralKeys may not be overridden by custom_request_params in any
// provider payload.
var structuralKeys = map[string]bool{
	"model":             true,
	"messages":          true,
	"input":             true,
	"contents":          true,
	"stream":            true,
	"tools":             true,
	"tool_choice":       true,
	"toolConfig":        true,
	"system":            true,
	"systemInstruction": true,
	"instructions":      true,
}

// resolveModel picks the request model or the configured default.
func resolveModel(req *types.ChatCompletionRequest, defaultModel string) (string, error) {
	if req.Model != "" {
		return req.Model, nil
	}
	if defaultModel != "" {
		return defaultModel, nil
	}
	return "", ErrMissingModel
}

// reasoningEffort accepts the effort from either the flat field or the
// nested reasoning object, flat taking precedence.
func reasoningEffort(req *types.ChatCompletionRequest) string {
	if req.ReasoningEffort != "" {
		return req.ReasoningEffort
	}
	if req.Reasoning != nil {
		return req.Reasoning.Effort
	}
	return ""
}

// applyExtras copies allow-listed passthrough fields from the request's
// extra keys into the marshaled payload. allowlist maps canonical field
// names to provider payload paths. Reserved internal keys are never
// copied; everything else outside the allow-list is dropped silently.
func applyExtras(payload []byte, req *types.ChatCompletionRequest, allowlist map[string]string) []byte {
	for key, value := range req.Extra {
		if reservedRequestKeys[key] {
			continue
		}
		path, ok := allowlist[key]
		if !ok {
			continue
		}
		if updated, err := sjson.SetBytes(payload, path, value); err == nil {
			payload = updated
		}
	}
	return payload
}

// applyCustomParams merges custom_request_params into the payload last.
// Structural fields are blocked from being overridden.
func applyCustomParams(payload []byte, req *types.ChatCompletionRequest) []byte {
	for key, value := range req.CustomRequestParams {
		if structuralKeys[key] || reservedRequestKeys[key] {
			continue
		}
		if updated, err := sjson.SetBytes(payload, key, value); err == nil {
			payload = updated
		}
	}
	return payload
}

// extraInt reads an integer-valued extra field.
func extraInt(req *types.ChatCompletionRequest, keys ...string) int {
	for _, key := range keys {
		if v, ok := req.Extra[key]; ok {
			if n := types.IntFromAny(v); n != 0 {
				return n
			}
		}
	}
	return 0
}

// extraStrings reads a string-or-string-array extra field.
func extraStrings(req *types.ChatCompletionRequest, key string) []string {
	switch v := req.Extra[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
