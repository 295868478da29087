// Package anthropicwire defines the Anthropic Messages API wire shapes this
// adapter speaks on its inbound side, and the two converters between that
// wire format and the neutral prompt model: ToNeutral (Anthropic -> neutral,
// used once per inbound request) and FromNeutral (neutral -> Anthropic,
// used by the stream transcoder and the non-streaming response path).
//
// Grounded on other_examples/dahetaoa-ant2api__request.go for the minimal
// hand-rolled struct shape (plain fields plus `any` for the handful of
// polymorphic fields, rather than a generated union type), extended with the
// fields this adapter's invariants need (cache_control, source.url,
// redacted_thinking.data) that ant2api's narrower proxy didn't carry.
package anthropicwire

import "encoding/json"

// MessagesRequest is the body of an inbound POST /v1/messages request.
type MessagesRequest struct {
	Model         string          `json:"model"`
	MaxTokens     int             `json:"max_tokens"`
	Messages      []Message       `json:"messages"`
	System        json.RawMessage `json:"system,omitempty"`
	Stream        bool            `json:"stream"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    json.RawMessage `json:"tool_choice,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
}

// Metadata carries the handful of request-level fields this adapter passes
// through to drivers that have an equivalent (currently just OpenAI's user
// field, via metadata.user_id).
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

// Message is one entry of the messages array. Content is either a bare
// string (shorthand for a single text block) or an array of ContentBlock.
type Message struct {
	Role         string          `json:"role"`
	Content      json.RawMessage `json:"content"`
	CacheControl *CacheControl   `json:"cache_control,omitempty"`
}

// CacheControl is Anthropic's prompt-caching annotation. Only Type is
// inspected by this adapter; it is carried through opaquely otherwise.
type CacheControl struct {
	Type string `json:"type"`
}

// ContentBlock is the union of every block shape the Messages API allows in
// a request or response: text, thinking, redacted_thinking, image,
// document, tool_use, tool_result. Which fields are populated is
// determined by Type.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// redacted_thinking
	Data string `json:"data,omitempty"`

	// image / document
	Source *Source `json:"source,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`

	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// Source is an image/document content source: either inline base64 or a
// remote URL.
type Source struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Tool is a function-tool declaration. Built-in tools (computer_*,
// text_editor_*, bash_*) are decoded into Tool too; their InputSchema is
// absent and Type carries the built-in discriminator instead.
type Tool struct {
	Type        string          `json:"type,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// MessageResponse is the body of a non-streaming /v1/messages response.
type MessageResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// Usage is the Anthropic wire usage block.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}
