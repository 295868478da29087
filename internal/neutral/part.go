package neutral

// TextPart is plain assistant/user/system text.
//
// CacheControl carries the block's own cache_control annotation, distinct
// from the message-level one on the enclosing Turn.
type TextPart struct {
	Text         string
	CacheControl bool
}

func (TextPart) partKind() string { return "text" }

// ReasoningPart carries opaque chain-of-thought across providers. Text is
// the provider's thinking text; Signature (when present) is an opaque
// cryptographic signature some providers attach and others must echo back
// verbatim on replay — carried through unexamined.
type ReasoningPart struct {
	Text      string
	Signature string
}

func (ReasoningPart) partKind() string { return "reasoning" }

// FilePart is an image or document, inline or by reference. Bytes and URL
// are mutually exclusive; exactly one is set. For a Bytes part, MediaType
// is non-empty by the time a driver sees it: anthropicwire sniffs it from
// the bytes when the wire block omits it. For a URL part, MediaType is the
// wire block's media_type as given and is empty when the block carries
// none. Drivers do not re-derive it.
type FilePart struct {
	Bytes        []byte
	URL          string
	MediaType    string
	Filename     string
	CacheControl bool
}

func (FilePart) partKind() string { return "file" }

// ToolCallPart is an assistant-issued tool invocation. CallID is unique
// within an assistant turn; duplicate-suppression is enforced downstream
// in internal/anthropicwire rather than here, since the invariant is
// about the turn's rendered *output*, not the IR itself.
type ToolCallPart struct {
	CallID       string
	ToolName     string
	Input        map[string]any
	CacheControl bool
}

func (ToolCallPart) partKind() string { return "tool_call" }

// ToolResultPart is the tool-turn counterpart to a ToolCallPart. CallID
// must match a preceding assistant ToolCallPart.CallID in prompt order;
// anthropicwire enforces this while building the prompt (protocol_invariant
// on mismatch).
type ToolResultPart struct {
	CallID       string
	Output       ToolResultOutput
	CacheControl bool
}

func (ToolResultPart) partKind() string { return "tool_result" }

// ToolResultOutput is the closed sum type over the five tool_result output
// shapes.
type ToolResultOutput interface {
	outputKind() string
}

type TextOutput struct{ Text string }

func (TextOutput) outputKind() string { return "text" }

type JSONOutput struct{ Value any }

func (JSONOutput) outputKind() string { return "json" }

type ErrorTextOutput struct{ Text string }

func (ErrorTextOutput) outputKind() string { return "error_text" }

type ErrorJSONOutput struct{ Value any }

func (ErrorJSONOutput) outputKind() string { return "error_json" }

// ContentOutput is a mixed text/media result, as produced when a client's
// tool_result block carries an array of content parts rather than a bare
// string.
type ContentOutput struct {
	Parts []ContentItem
}

func (ContentOutput) outputKind() string { return "content" }

// ContentItem is one element of a ContentOutput: either text or a media
// file. Exactly one of Text/Media is set.
type ContentItem struct {
	Text  *string
	Media *FilePart
}

// IsError reports whether output represents a tool execution failure.
func IsError(o ToolResultOutput) bool {
	switch o.(type) {
	case ErrorTextOutput, ErrorJSONOutput:
		return true
	default:
		return false
	}
}
