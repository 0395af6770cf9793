package types

import "encoding/json"

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to the given bool.
func BoolPtr(b bool) *bool {
	return &b
}

// IntFromAny converts a JSON-decoded numeric value to int.
// Handles float64, int, int64, and json.Number (all common from json.Unmarshal).
func IntFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

// ParseContentParts coerces a message content value (string or part array)
// into a flat list of recognized content parts. Unrecognized parts are
// dropped, never fabricated.
func ParseContentParts(content any) []ContentPart {
	switch c := content.(type) {
	case string:
		if c == "" {
			return nil
		}
		return []ContentPart{{Type: "text", Text: c}}
	case []any:
		var parts []ContentPart
		for _, raw := range c {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if p, ok := parseContentPart(m); ok {
				parts = append(parts, p)
			}
		}
		return parts
	case []ContentPart:
		return c
	}
	return nil
}

func parseContentPart(m map[string]any) (ContentPart, bool) {
	ptype, _ := m["type"].(string)
	switch ptype {
	case "text", "input_text", "output_text":
		text, _ := m["text"].(string)
		if text == "" {
			text, _ = m["content"].(string)
		}
		if text == "" {
			return ContentPart{}, false
		}
		return ContentPart{Type: ptype, Text: text}, true

	case "image_url", "input_image", "output_image":
		var url, detail string
		switch img := m["image_url"].(type) {
		case map[string]any:
			url, _ = img["url"].(string)
			detail, _ = img["detail"].(string)
		case string:
			url = img
		}
		if url == "" {
			url, _ = m["url"].(string)
		}
		if url == "" {
			return ContentPart{}, false
		}
		return ContentPart{Type: ptype, ImageURL: &ImageURL{URL: url, Detail: detail}}, true

	case "input_audio":
		audio, ok := m["input_audio"].(map[string]any)
		if !ok {
			return ContentPart{}, false
		}
		data, _ := audio["data"].(string)
		if data == "" {
			return ContentPart{}, false
		}
		format, _ := audio["format"].(string)
		return ContentPart{Type: "input_audio", InputAudio: &InputAudio{Data: data, Format: format}}, true
	}
	return ContentPart{}, false
}

// ContentText joins all text-bearing parts of a message content value with
// newlines. Used where providers expect plain text (tool results, system
// prompts).
func ContentText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	default:
		parts := ParseContentParts(content)
		text := ""
		for _, p := range parts {
			if p.Text == "" {
				continue
			}
			if text != "" {
				text += "\n"
			}
			text += p.Text
		}
		return text
	}
}
