// Package errormap classifies a backend driver error and rewrites it into
// an Anthropic error event/body plus a suggested HTTP status.
//
// A small table-driven classifier that normalizes a handful of
// provider-specific error shapes into the caller-facing taxonomy, with a
// safe default for anything it doesn't recognize: the mirror image of
// mapping Anthropic errors to OpenAI's taxonomy, done for OpenAI's (and
// other drivers') errors against Anthropic's taxonomy instead.
package errormap

// Kind is an Anthropic error event "type" value.
type Kind string

const (
	KindRateLimit       Kind = "rate_limit_error"
	KindRequestTooLarge Kind = "request_too_large"
	KindOverloaded      Kind = "overloaded_error"
	KindAPIError        Kind = "api_error"
	KindInvalidRequest  Kind = "invalid_request_error"
)

// Phase distinguishes whether an error was observed before the driver had
// produced any bytes, or after the client had already received headers (and
// possibly a partial stream).
type Phase string

const (
	// PhasePreStream: the driver's HTTP call failed before any event was
	// produced; the adapter's own response has not started yet.
	PhasePreStream Phase = "pre_stream"

	// PhasePostHeaders: the adapter already began writing SSE to the
	// client (status 200 sent) when the driver failed.
	PhasePostHeaders Phase = "post_headers"
)

// DriverError is the input to Classify: the provider that produced it, the
// provider-reported error code/type (when the provider surfaces a
// structured error, e.g. OpenAI's `error.code`/`error.type`), a
// human-readable message, and whether any bytes had reached the client yet.
type DriverError struct {
	Provider string
	Code     string
	Type     string
	Message  string
	Phase    Phase

	// Transport is true when the error happened at the HTTP/transport
	// level (connection refused, dropped mid-read, decode failure) rather
	// than being a structured error body the provider returned.
	Transport bool
}

// Classification is Classify's output.
type Classification struct {
	Kind    Kind
	Message string

	// HTTPStatus is meaningful only when Phase == PhasePreStream; a
	// PhasePostHeaders classification always becomes an inline SSE error
	// event on the already-200 response, never a status change.
	HTTPStatus int
}

// Classify implements the fixed classification table: openai server_error
// and rate-limit variants get specific treatment, any transport-level
// failure before streaming starts becomes overloaded_error/503, and
// everything else passes through as a plain api_error with the provider's
// message preserved, at 400.
func Classify(e DriverError) Classification {
	if e.Transport && e.Phase == PhasePreStream {
		return Classification{Kind: KindOverloaded, Message: "upstream transport error", HTTPStatus: 503}
	}
	if e.Transport && e.Phase == PhasePostHeaders {
		return Classification{Kind: KindOverloaded, Message: "upstream transport error"}
	}

	if e.Provider == "openai" {
		switch {
		case e.Code == "server_error":
			return Classification{Kind: KindRateLimit, Message: e.Message, HTTPStatus: 429}
		case e.Code == "rate_limit_exceeded" && e.Type == "tokens":
			return Classification{Kind: KindRequestTooLarge, Message: e.Message, HTTPStatus: 413}
		case e.Code == "rate_limit_exceeded":
			return Classification{Kind: KindRateLimit, Message: e.Message, HTTPStatus: 429}
		}
	}

	return Classification{Kind: KindAPIError, Message: e.Message, HTTPStatus: 400}
}

// ErrorBody is the JSON shape of an Anthropic error response/event:
// {"type":"error","error":{"type":kind,"message":message}}.
type ErrorBody struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object of ErrorBody.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Body renders a Classification into the Anthropic error JSON body used for
// both the non-streaming error response and the inline SSE error event.
func (c Classification) Body() ErrorBody {
	return ErrorBody{Type: "error", Error: ErrorDetail{Type: string(c.Kind), Message: c.Message}}
}
