package stream

import "github.com/sudip358/claude-route/internal/anthropicwire"

// The structs below are the JSON payload shapes of the Anthropic Messages
// streaming protocol's SSE event data fields. They live here rather than
// in anthropicwire because they are
// streaming-only wire shapes; anthropicwire.MessageResponse/ContentBlock
// cover the non-streaming body these ultimately assemble into.

type messageStartData struct {
	Type    string         `json:"type"`
	Message messageEnvelope `json:"message"`
}

type messageEnvelope struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Role         string            `json:"role"`
	Content      []any             `json:"content"`
	Model        string            `json:"model"`
	StopReason   *string           `json:"stop_reason"`
	StopSequence *string           `json:"stop_sequence"`
	Usage        anthropicwire.Usage `json:"usage"`
}

type contentBlockStartData struct {
	Type         string       `json:"type"`
	Index        int          `json:"index"`
	ContentBlock contentBlock `json:"content_block"`
}

// contentBlock is the content_block payload of a content_block_start
// event; which fields are meaningful is determined by Type, mirroring
// anthropicwire.ContentBlock's own discriminated-by-Type shape.
type contentBlock struct {
	Type     string         `json:"type"`
	Text     *string        `json:"text,omitempty"`
	Thinking *string        `json:"thinking,omitempty"`
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Input    map[string]any `json:"input,omitempty"`
}

type contentBlockDeltaData struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Delta delta  `json:"delta"`
}

type delta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

type contentBlockStopData struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type messageDeltaData struct {
	Type  string             `json:"type"`
	Delta messageDeltaDelta  `json:"delta"`
	Usage anthropicwire.Usage `json:"usage"`
}

type messageDeltaDelta struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

type messageStopData struct {
	Type string `json:"type"`
}

// errorEventData is the inline SSE error event payload: the same shape as
// the non-streaming error body.
type errorEventData struct {
	Type  string              `json:"type"`
	Error errorEventDataError `json:"error"`
}

type errorEventDataError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
