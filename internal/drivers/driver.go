// Package drivers defines the backend driver contract every provider
// package (anthropicdriver, openaidriver, googledriver) implements, and the
// immutable registry the proxy dispatches through.
//
// Grounded on haowjy-meridian-llm-go's Provider interface
// (StreamResponse(ctx, req) (<-chan StreamEvent, error), Name(),
// SupportsModel(model)): this package's Driver is the same shape,
// generalized from that package's own Block/GenerateRequest types to this
// adapter's neutral package.
package drivers

import (
	"context"

	"github.com/sudip358/claude-route/internal/neutral"
)

// Kind identifies which transport a driver speaks, independent of the
// provider name it is registered under (xai and azure both speak the
// openai transport with different base URLs and headers).
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindGoogle    Kind = "google"
	KindXAI       Kind = "xai"
	KindAzure     Kind = "azure"
	KindAnthropic Kind = "anthropic"
)

// Tool is a schema-adapted tool declaration ready to hand to a driver: its
// InputSchema has already been run through internal/schema.Adapt for this
// driver's provider.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any

	BuiltinKind string
	RawParams   map[string]any
}

// OpenAIHints carries the per-request knobs OpenAI's API accepts that have
// no neutral-prompt equivalent.
type OpenAIHints struct {
	ReasoningEffort      string // "minimal" | "low" | "medium" | "high"; empty = unset
	ReasoningSummaryAuto bool
	ServiceTier          string // "flex" | "priority"; empty = unset

	// UserID is the inbound request's metadata.user_id, forwarded as
	// OpenAI's "user" field. Set per-request, unlike the other fields on
	// this struct which come from static adapter configuration.
	UserID string
}

// Hints bundles every provider-specific knob a driver might consult. The
// proxy populates the OpenAI field only for openai-kind drivers; xai, azure,
// anthropic and google drivers receive it empty and take no hints beyond
// API key + base URL.
type Hints struct {
	OpenAI OpenAIHints
}

// Request is the input to Driver.Invoke.
type Request struct {
	// Model is the model identifier with any "provider/" prefix already
	// stripped by the proxy.
	Model           string
	Prompt          *neutral.Prompt
	Tools           []Tool
	MaxOutputTokens int
	Temperature     *float64
	Hints           Hints
}

// Driver abstracts "given a neutral prompt, produce a neutral event
// stream" over one backend provider. Invoke returns an error only for a
// failure to even begin the call (e.g. request construction); once the
// channel is returned, all further failure is reported as a neutral error
// event on that channel, and the channel is then closed. Canceling ctx must
// stop the driver's outstanding upstream HTTP request.
type Driver interface {
	Invoke(ctx context.Context, req Request) (<-chan neutral.Event, error)

	// Name returns the driver kind this instance speaks, for error
	// classification and logging.
	Name() Kind
}
