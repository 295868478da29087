package neutral

// EventKind discriminates the neutral stream event union.
type EventKind string

const (
	EventStepStart      EventKind = "step-start"
	EventTextStart      EventKind = "text-start"
	EventTextDelta      EventKind = "text-delta"
	EventTextEnd        EventKind = "text-end"
	EventReasoningStart EventKind = "reasoning-start"
	EventReasoningDelta EventKind = "reasoning-delta"
	EventReasoningEnd   EventKind = "reasoning-end"
	EventToolInputStart EventKind = "tool-input-start"
	EventToolInputDelta EventKind = "tool-input-delta"
	EventToolInputEnd   EventKind = "tool-input-end"
	EventToolCall       EventKind = "tool-call"
	EventStepFinish     EventKind = "step-finish"
	EventFinish         EventKind = "finish"
	EventError          EventKind = "error"
)

// FinishReason is the neutral stop-reason vocabulary each driver normalizes
// its own provider's reason into.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool-calls"
	FinishLength    FinishReason = "length"
	FinishOther     FinishReason = "other"
)

// Usage is the neutral token accounting model. Missing fields
// default to 0; CachedInputTokens is a pointer so "not reported" (nil) can
// be distinguished from "reported as zero" by internal/stream when it
// decides whether to emit cache_read_input_tokens at all.
type Usage struct {
	InputTokens       int
	OutputTokens      int
	CachedInputTokens *int
}

// Event is the discriminated union of neutral stream events. Exactly one
// group of fields is populated, selected by Kind; drivers construct these
// directly rather than through constructors, since each driver's adapter
// code is the one place that needs to be exhaustive over its *own*
// provider's event shapes, not over this union.
type Event struct {
	Kind EventKind

	// text-delta / reasoning-delta
	TextDelta string

	// tool-input-start / tool-call
	ToolCallID string
	ToolName   string

	// tool-input-delta: a raw JSON fragment to append to the open tool
	// call's accumulated input.
	JSONFragment string

	// tool-call (one-shot variant): fully decoded input.
	ToolInput map[string]any

	// step-finish
	FinishReason FinishReason
	Usage        Usage

	// error: the classification *inputs* a driver observed, not a
	// pre-classified Anthropic kind. internal/errormap.Classify turns
	// these into an Anthropic error kind + HTTP status; the component that
	// owns the HTTP response (internal/stream) decides the Phase, since
	// only it knows whether bytes have reached the client yet.
	ErrorProvider   string
	ErrorCode       string
	ErrorType       string
	ErrorMessage    string
	ErrorTransport  bool
	Raw             []byte
}
