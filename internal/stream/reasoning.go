package stream

import "encoding/json"

// ReasoningCollector keeps the ordered set of reasoning detail objects seen
// during a stream. Exact structural duplicates (identical canonical JSON)
// are suppressed; two genuinely distinct blocks that serialize identically
// collapse into one, which is an accepted approximation.
type ReasoningCollector struct {
	seen    map[string]struct{}
	details []map[string]any
}

// NewReasoningCollector creates an empty collector.
func NewReasoningCollector() *ReasoningCollector {
	return &ReasoningCollector{seen: map[string]struct{}{}}
}

// Add records a reasoning detail object. Returns false when an identical
// detail was already collected.
func (c *ReasoningCollector) Add(detail map[string]any) bool {
	if len(detail) == 0 {
		return false
	}
	key, err := json.Marshal(detail)
	if err != nil {
		return false
	}
	if _, dup := c.seen[string(key)]; dup {
		return false
	}
	c.seen[string(key)] = struct{}{}
	c.details = append(c.details, detail)
	return true
}

// AddText records a plain-text reasoning block under the given format tag.
func (c *ReasoningCollector) AddText(format, text string) bool {
	if text == "" {
		return false
	}
	return c.Add(map[string]any{"type": format, "text": text})
}

// Details returns the collected reasoning details in first-seen order.
func (c *ReasoningCollector) Details() []map[string]any {
	return c.details
}
