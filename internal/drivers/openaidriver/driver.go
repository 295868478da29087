// Package openaidriver implements drivers.Driver over OpenAI's
// chat-completions API, using a hand-rolled JSON request builder and a
// bufio.Scanner-based SSE reader rather than a generated client (see
// DESIGN.md for why no generated OpenAI client ships in this module).
//
// Grounded on mihaisavezi-claude-code-open's internal/providers.OpenAIProvider:
// the same TransformRequest/TransformResponse/TransformStream split and the
// same incremental tool-call-by-index accumulation in its stream handling,
// re-expressed against this adapter's neutral package instead of raw
// map[string]any rewriting.
package openaidriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Driver calls an OpenAI-compatible chat-completions endpoint directly over
// net/http. It also backs drivers.KindXAI and drivers.KindAzure through
// their own thin wrapper packages, which supply a different kind, base URL,
// and header.
type Driver struct {
	kind       drivers.Kind
	httpClient *http.Client

	// completionsURL is the full URL Invoke posts to. Plain OpenAI and xAI
	// compute it as baseURL+"/chat/completions"; Azure OpenAI's deployment
	// + api-version query shape doesn't fit that concatenation, so
	// NewWithTransport takes the finished URL rather than a base to append
	// to.
	completionsURL string

	// authorize sets whatever header(s) the caller's transport needs on
	// an outgoing request. The plain openai driver sets a bearer token;
	// azuredriver overrides this with an api-key header.
	authorize func(*http.Request)
}

// New builds a Driver that speaks to baseURL (default
// "https://api.openai.com/v1" when empty) using apiKey as a bearer token.
func New(apiKey, baseURL string) *Driver {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Driver{
		kind:           drivers.KindOpenAI,
		httpClient:     &http.Client{Timeout: 0},
		completionsURL: baseURL + "/chat/completions",
		authorize: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+apiKey)
		},
	}
}

// NewWithTransport builds a Driver under a caller-supplied kind,
// completions URL, and authorize function, for drivers that speak the
// openai wire format under a different identity (xaidriver, azuredriver).
// completionsURL is used exactly as given, including any query string, so
// Azure's "deployments/<name>/chat/completions?api-version=..." shape
// doesn't need a second concatenation step here.
func NewWithTransport(kind drivers.Kind, completionsURL string, authorize func(*http.Request)) *Driver {
	return &Driver{
		kind:           kind,
		httpClient:     &http.Client{Timeout: 0},
		completionsURL: completionsURL,
		authorize:      authorize,
	}
}

func (d *Driver) Name() drivers.Kind { return d.kind }

// Invoke posts a chat-completions request with stream:true and republishes
// each SSE chunk onto a neutral.Event channel. Invoke itself only reports
// errors that prevent the HTTP call from being issued at all; once the
// response is open, every further failure (a non-2xx status, a malformed
// chunk, a dropped connection) is reported as a neutral error event and the
// channel is closed.
func (d *Driver) Invoke(ctx context.Context, req drivers.Request) (<-chan neutral.Event, error) {
	body, err := buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("openaidriver: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openaidriver: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.completionsURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openaidriver: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	d.authorize(httpReq)

	out := make(chan neutral.Event, 16)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		go func() {
			out <- neutral.Event{
				Kind:           neutral.EventError,
				ErrorProvider:  string(d.kind),
				ErrorMessage:   err.Error(),
				ErrorTransport: true,
			}
			close(out)
		}()
		return out, nil
	}

	if resp.StatusCode >= 300 {
		go emitHTTPError(d.kind, resp, out)
		return out, nil
	}

	go pump(ctx, d.kind, resp.Body, out)
	return out, nil
}

func emitHTTPError(kind drivers.Kind, resp *http.Response, out chan<- neutral.Event) {
	defer close(out)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var body errorBody
	message := string(raw)
	code, errType := "", ""
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		message = body.Error.Message
		code = body.Error.Code
		errType = body.Error.Type
	}
	if code == "" && resp.StatusCode == http.StatusInternalServerError {
		code = "server_error"
	}

	out <- neutral.Event{
		Kind:          neutral.EventError,
		ErrorProvider: string(kind),
		ErrorCode:     code,
		ErrorType:     errType,
		ErrorMessage:  message,
		Raw:           raw,
	}
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// idleTimeout is not referenced by pump: pump reads SSE lines with no idle
// deadline of its own, so a stalled upstream connection stays open until
// ctx is canceled.
const idleTimeout = 10 * time.Minute
