package neutral

import "fmt"

// ErrorKind enumerates the failure classes that can originate anywhere in
// the translation pipeline (anthropicwire, schema, drivers, stream), before
// internal/errormap narrows them down to an Anthropic error type and HTTP
// status. Kept distinct from errormap's Anthropic-shaped taxonomy: this one
// is about *where* a request died, that one is about *what the client sees*.
type ErrorKind string

const (
	// KindProtocolInvariant means the inbound Anthropic request violated an
	// invariant this adapter depends on (e.g. a tool_result whose CallID
	// has no matching preceding tool_use).
	KindProtocolInvariant ErrorKind = "protocol_invariant"

	// KindUnsupportedMediaType means a file part's MediaType is not one the
	// target provider, or this adapter, knows how to carry.
	KindUnsupportedMediaType ErrorKind = "unsupported_media_type"

	// KindUnknownProvider means the model field's provider prefix did not
	// match any configured backend.
	KindUnknownProvider ErrorKind = "unknown_provider"

	// KindSchemaAdapt means a tool's input_schema could not be rewritten
	// for the target provider (malformed JSON Schema).
	KindSchemaAdapt ErrorKind = "schema_adapt"

	// KindDriverUpstream means the backend provider returned an HTTP error
	// before or instead of a usable response.
	KindDriverUpstream ErrorKind = "driver_upstream"

	// KindDriverStream means the backend provider's response started
	// streaming successfully but broke down mid-stream (malformed event,
	// dropped connection, decode failure).
	KindDriverStream ErrorKind = "driver_stream"

	// KindClientAbort means the inbound client disconnected or canceled
	// its context before the response completed.
	KindClientAbort ErrorKind = "client_abort"
)

// Error is the typed error carried across package boundaries in the
// translation pipeline. Cause, when set, is the underlying error from the
// standard library or a driver's HTTP client; it is unwrapped via Unwrap so
// callers can still errors.Is/As through to it.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs an *Error without a wrapped cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError constructs an *Error wrapping cause.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
