package stream

import "encoding/json"

// Event is a single SSE event read from an upstream provider.
// Type is the value of the payload's "type" field when present; providers
// whose events carry no discriminator (Gemini, OpenAI-compatible chat
// chunks) yield events with an empty Type.
type Event struct {
	Type string
	Raw  json.RawMessage
	Data map[string]any
}
