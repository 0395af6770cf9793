// Package sse rewrites upstream provider event streams into the canonical
// OpenAI chat completion SSE grammar. One translator instance serves one
// in-flight request and owns its stream.State exclusively.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/qduc/chat-sub010/internal/stream"
	"github.com/qduc/chat-sub010/internal/types"
)

// Translator consumes upstream SSE events from a stream.Reader and writes
// canonical chat completion chunks.
type Translator interface {
	Translate(r *stream.Reader)
}

// Writer emits canonical SSE chunks for a single stream. It announces the
// assistant role exactly once before the first delta, and completes at most
// once no matter how many terminal triggers arrive.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	State   *stream.State
}

// NewWriter wraps a response writer for canonical chunk emission.
// The caller must have sent SSE headers already.
func NewWriter(w http.ResponseWriter, st *stream.State) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher, State: st}
}

func (wr *Writer) write(chunk any) {
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(wr.w, "data: %s\n\n", data)
	if wr.flusher != nil {
		wr.flusher.Flush()
	}
}

func (wr *Writer) chunk(delta types.ChatDelta, finish *string, usage *types.Usage) types.ChatCompletionChunk {
	return types.ChatCompletionChunk{
		ID:      wr.State.ID,
		Object:  "chat.completion.chunk",
		Created: wr.State.Created,
		Model:   wr.State.Model,
		Choices: []types.ChatChunkChoice{
			{Index: 0, Delta: delta, FinishReason: finish},
		},
		Usage: usage,
	}
}

// Delta writes a content/tool/reasoning delta chunk, announcing the
// assistant role first if this is the first delta of the stream.
func (wr *Writer) Delta(delta types.ChatDelta) {
	if wr.State.Completed {
		return
	}
	if !wr.State.RoleAnnounced {
		wr.State.RoleAnnounced = true
		wr.write(wr.chunk(types.ChatDelta{Role: "assistant"}, nil, nil))
	}
	wr.write(wr.chunk(delta, nil, nil))
}

// Finish emits the terminal chunk (finish reason, accumulated usage and
// reasoning details) followed by the [DONE] sentinel. A second call is a
// no-op.
func (wr *Writer) Finish(reason string) {
	if wr.State.Completed {
		return
	}
	wr.State.Completed = true

	delta := types.ChatDelta{}
	if details := wr.State.Reasoning.Details(); len(details) > 0 {
		delta.ReasoningDetails = details
	}
	wr.write(wr.chunk(delta, types.StringPtr(reason), wr.State.Usage))
	fmt.Fprint(wr.w, "data: [DONE]\n\n")
	if wr.flusher != nil {
		wr.flusher.Flush()
	}
}

// Fail emits a canonical error frame, then completes the stream with an
// "error" finish reason. Used for provider-reported failure events; socket
// level errors instead abort the downstream without a synthetic finish.
func (wr *Writer) Fail(message string) {
	if wr.State.Completed {
		return
	}
	wr.write(types.ErrorResponse{Error: types.ErrorDetail{Message: message, Type: "upstream_error"}})
	wr.State.FinishReason = "error"
	wr.Finish("error")
}
