package stream

import (
	"github.com/google/uuid"
	"github.com/qduc/chat-sub010/internal/types"
)

// State is the per-request accumulator for one in-flight streaming
// translation. It is owned by exactly one translator instance and mutated
// only by the single goroutine reading the upstream body, so it needs no
// locking. It is discarded when the stream ends or errors.
type State struct {
	ID      string
	Model   string
	Created int64

	RoleAnnounced bool
	FinishReason  string
	Completed     bool

	Usage     *types.Usage
	Tools     *ToolCallAccumulator
	Reasoning *ReasoningCollector
}

// NewState creates a State for a stream serving the given model.
func NewState(model string, created int64) *State {
	return &State{
		ID:        "chatcmpl-" + uuid.NewString(),
		Model:     model,
		Created:   created,
		Tools:     NewToolCallAccumulator(),
		Reasoning: NewReasoningCollector(),
	}
}

// FinalFinishReason resolves the finish reason for the terminal chunk:
// the recorded upstream reason when known, forced to "tool_calls" when any
// tool call was seen, defaulting to "stop".
func (s *State) FinalFinishReason() string {
	if s.Tools.Seen() && s.FinishReason != "error" {
		return "tool_calls"
	}
	if s.FinishReason != "" {
		return s.FinishReason
	}
	return "stop"
}
