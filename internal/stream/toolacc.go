package stream

import (
	"encoding/json"
	"log/slog"

	"github.com/kaptinlin/jsonrepair"
	"github.com/qduc/chat-sub010/internal/types"
)

// MaxToolArgBufSize is the upper bound (in bytes) for accumulated
// function-call argument deltas per tool call.
const MaxToolArgBufSize = 1 << 20 // 1 MB

// ToolCallAccumulator merges fragmented tool-call deltas keyed by index.
// Fragments may arrive in any index order; each index accumulates into one
// {id, type, function:{name, arguments}} record. Update reports only the
// fields that changed so the caller can maintain a strict append-only
// argument stream toward the client.
type ToolCallAccumulator struct {
	calls map[int]*types.ToolCall
	order []int
}

// NewToolCallAccumulator creates an empty accumulator.
func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{calls: map[int]*types.ToolCall{}}
}

// Update applies a fragment for the given index and returns a delta record
// holding only the newly observed fields (new id, new name, appended
// arguments). ok is false when the fragment adds nothing.
func (a *ToolCallAccumulator) Update(index int, id, name, args string) (types.ToolCall, bool) {
	call, exists := a.calls[index]
	if !exists {
		call = &types.ToolCall{Index: index, Type: "function"}
		a.calls[index] = call
		a.order = append(a.order, index)
	}

	delta := types.ToolCall{Index: index}
	changed := false

	if id != "" && call.ID == "" {
		call.ID = id
		delta.ID = id
		delta.Type = "function"
		changed = true
	}
	if name != "" && call.Function.Name == "" {
		call.Function.Name = name
		delta.Function.Name = name
		changed = true
	}
	if args != "" {
		if len(call.Function.Arguments)+len(args) > MaxToolArgBufSize {
			slog.Warn("tool argument buffer limit exceeded, dropping delta",
				"index", index, "buf_len", len(call.Function.Arguments), "delta_len", len(args))
		} else {
			call.Function.Arguments += args
			delta.Function.Arguments = args
			changed = true
		}
	}

	return delta, changed
}

// Seen reports whether any tool call fragment was observed.
func (a *ToolCallAccumulator) Seen() bool {
	return len(a.order) > 0
}

// Calls returns the finalized tool calls in first-seen order with their
// arguments coerced to valid JSON strings.
func (a *ToolCallAccumulator) Calls() []types.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	out := make([]types.ToolCall, 0, len(a.order))
	for _, idx := range a.order {
		call := *a.calls[idx]
		call.Function.Arguments = FinalizeArguments(call.Function.Arguments)
		out = append(out, call)
	}
	return out
}

// FinalizeArguments coerces an accumulated argument string into valid JSON.
// Truncated or malformed fragments are repaired when possible; "{}" is the
// terminal fallback.
func FinalizeArguments(raw string) string {
	if raw == "" {
		return "{}"
	}
	if json.Valid([]byte(raw)) {
		return raw
	}
	if repaired, err := jsonrepair.JSONRepair(raw); err == nil && json.Valid([]byte(repaired)) {
		return repaired
	}
	return "{}"
}
