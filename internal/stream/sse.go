package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter writes Server-Sent Events in Anthropic's wire shape:
// "event: <type>\ndata: <json>\n\n", flushing after every event so the
// client sees bytes as they are produced rather than once a buffer fills.
//
// It pairs a buffered writer with an http.Flusher and flushes after each
// full event rather than after each piece, since Anthropic's framing
// (unlike OpenAI's) has no [DONE] sentinel to delay behind.
type sseWriter struct {
	w       *bufio.Writer
	flusher http.Flusher
}

// newSSEWriter wraps w for SSE writing. It returns an error if w does not
// support flushing (a requirement for any streaming HTTP response).
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("stream: response writer does not support flushing")
	}
	return &sseWriter{w: bufio.NewWriter(w), flusher: flusher}, nil
}

// writeEvent writes one SSE event of the given type carrying data marshaled
// as JSON, then flushes.
func (s *sseWriter) writeEvent(eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("stream: marshal %s event: %w", eventType, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
