package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Reader reads SSE events from an upstream response body. Malformed data
// frames are skipped, not fatal; only socket-level failures surface as
// errors distinct from io.EOF.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader creates a new SSE reader.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next SSE event. A frame is the data lines accumulated
// up to a blank-line terminator, multiple data lines joined with a
// newline. Returns nil, io.EOF when the upstream signals [DONE] or the
// stream ends cleanly; any other error means the underlying transport
// failed mid-stream.
func (r *Reader) Next() (*Event, error) {
	var lines []string
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line != "" {
			if strings.HasPrefix(line, "data:") {
				lines = append(lines, strings.TrimSpace(line[5:]))
			}
			continue
		}
		data := strings.Join(lines, "\n")
		lines = lines[:0]
		if data == "[DONE]" {
			return nil, io.EOF
		}
		if ev := parseEvent(data); ev != nil {
			return ev, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	// Upstreams that omit the final blank line still get their last
	// frame delivered.
	if data := strings.Join(lines, "\n"); data != "" && data != "[DONE]" {
		if ev := parseEvent(data); ev != nil {
			return ev, nil
		}
	}
	return nil, io.EOF
}

func parseEvent(data string) *Event {
	if data == "" {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return nil
	}
	eventType, _ := parsed["type"].(string)
	return &Event{
		Type: eventType,
		Raw:  json.RawMessage(data),
		Data: parsed,
	}
}
