// Package neutral defines the provider-independent intermediate representation
// that every inbound Anthropic request is converted into, and that every
// backend driver consumes and produces. See anthropicwire (the Anthropic<->neutral
// converters) and drivers (the neutral<->provider-wire converters).
//
// Grounded on haowjy-meridian-llm-go's GenerateRequest/Message/Block model:
// an ordered turn list, each turn holding an ordered block/part list, with a
// closed set of part kinds instead of a loosely-typed map.
package neutral

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one role-tagged, ordered list of content parts.
//
// CacheControl is the message-level prompt-caching annotation: when true
// and a driver that understands caching renders this turn, it is applied
// to whichever of the turn's parts has none of its own (drivers.anthropicdriver
// applies it to the last rendered block, mirroring anthropicwire's own
// inheritance rule for outbound messages). Carried through opaquely by
// every other driver.
type Turn struct {
	Role         Role
	Parts        []Part
	CacheControl bool
}

// Prompt is the ordered sequence of turns built from an inbound Anthropic
// request, plus the pieces that live alongside the message list in
// Anthropic's wire format rather than inside it.
type Prompt struct {
	System string
	// SystemCacheControl is the cache_control annotation carried by the
	// inbound system prompt (a bare string never carries one; an array of
	// system text blocks does, on any block).
	SystemCacheControl bool
	Turns              []Turn
	Tools              []ToolDeclaration
}

// ToolDeclaration is either a regular function tool with a JSON Schema, or
// a built-in variant carried through verbatim without further
// interpretation.
type ToolDeclaration struct {
	Name        string
	Description string
	InputSchema map[string]any

	// BuiltinKind is set for computer_*/text_editor_*/bash_* tools; when
	// set, InputSchema/Description are ignored by drivers and the
	// declaration is passed through opaquely via RawParams.
	BuiltinKind string
	RawParams   map[string]any
}

// Part is the closed sum type over the five content-part variants.
// Implementations live in part.go; the unexported marker method keeps the
// set closed so a missing case in an exhaustive switch is a compile-time
// finding during review, not a silent runtime miss.
type Part interface {
	partKind() string
}

// Kind returns the discriminator string for a Part, useful for logging and
// switches that want a string rather than a type switch.
func Kind(p Part) string {
	return p.partKind()
}
