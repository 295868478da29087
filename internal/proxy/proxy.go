// Package proxy implements the HTTP surface this adapter presents to an
// inbound Anthropic-speaking client: a POST /v1/messages endpoint that
// translates the request to the neutral form, adapts tool schemas,
// dispatches to the selected backend driver, and streams or assembles the
// response back into Anthropic's wire format; a GET /v1/models static
// listing and GET /livez, /readyz probes for container orchestration; every
// other path is a catch-all byte-for-byte reverse proxy to Anthropic.
//
// The server lifecycle (net.Listen/http.Server/graceful Shutdown) and
// middleware composition follow this adapter's own proxy conventions; the
// /v1/messages handler itself has no precedent elsewhere in the adapter
// since it is the one component that speaks both directions of the wire.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/sudip358/claude-route/internal/anthropicwire"
	"github.com/sudip358/claude-route/internal/debugsink"
	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/errormap"
	"github.com/sudip358/claude-route/internal/neutral"
	"github.com/sudip358/claude-route/internal/schema"
	"github.com/sudip358/claude-route/internal/stream"
)

// ReadinessChecker reports whether the owning application considers itself
// ready to serve traffic, consulted by the GET /readyz handler.
type ReadinessChecker interface {
	IsReady() bool
}

// maxMessageBodyBytes bounds how much of an inbound /v1/messages body this
// adapter will buffer before giving up; large multi-document prompts can
// legitimately run into several MiB of base64.
const maxMessageBodyBytes = 64 << 20

// Proxy is the HTTP server this adapter exposes. One Proxy serves the
// adapter's entire lifetime; its registry is immutable once constructed.
type Proxy struct {
	registry      *drivers.Registry
	health        ReadinessChecker
	openAIHints   drivers.OpenAIHints
	debug         *debugsink.Sink
	sendReasoning bool

	reverseProxy *httputil.ReverseProxy
	mux          http.Handler

	srv      *http.Server
	listener net.Listener
}

// Option configures a Proxy at construction.
type Option func(*Proxy)

// WithOpenAIHints injects the reasoning_effort/service_tier knobs passed
// to the adapter constructor and forwarded to the OpenAI driver only.
func WithOpenAIHints(h drivers.OpenAIHints) Option {
	return func(p *Proxy) { p.openAIHints = h }
}

// WithDebugSink attaches the optional debug observer. A nil sink (the
// default) makes every debugsink call a no-op.
func WithDebugSink(s *debugsink.Sink) Option {
	return func(p *Proxy) { p.debug = s }
}

// WithTransport overrides the http.RoundTripper the catch-all reverse
// proxy uses to reach Anthropic, for tests that substitute a mock
// transport instead of dialing the real API.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) {
		if p.reverseProxy != nil {
			p.reverseProxy.Transport = rt
		}
	}
}

// WithSendReasoning controls whether the non-streaming response path
// renders reasoning/thinking blocks back onto the wire.
func WithSendReasoning(send bool) Option {
	return func(p *Proxy) { p.sendReasoning = send }
}

// New builds a Proxy that dispatches through registry and reverse-proxies
// every other path to anthropicBaseURL.
func New(registry *drivers.Registry, anthropicBaseURL string, health ReadinessChecker, opts ...Option) (*Proxy, error) {
	if anthropicBaseURL == "" {
		anthropicBaseURL = "https://api.anthropic.com"
	}
	target, err := url.Parse(anthropicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("proxy: parse anthropic base url: %w", err)
	}

	p := &Proxy{
		registry:      registry,
		health:        health,
		sendReasoning: true,
	}

	p.reverseProxy = &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host
		},
		// Content-Length is unknown for streamed Anthropic responses, which
		// makes the standard library flush every write immediately; no
		// explicit FlushInterval is needed to keep large bodies streamed
		// rather than buffered.
		ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	for _, opt := range opts {
		opt(p)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", p.handleMessages)
	mux.HandleFunc("GET /v1/models", modelsHandler())
	mux.HandleFunc("GET /livez", livenessHandler())
	mux.HandleFunc("GET /readyz", readinessHandler(p.health))
	mux.HandleFunc("/", p.handleByteProxy)
	p.mux = applyMiddlewares(mux, Recovery, RequestSizeLimit(maxMessageBodyBytes))

	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

func (p *Proxy) handleByteProxy(w http.ResponseWriter, r *http.Request) {
	p.reverseProxy.ServeHTTP(w, r)
}

// handleMessages decodes, translates, dispatches, and renders the response
// for POST /v1/messages.
func (p *Proxy) handleMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dbg := p.debug.NewRequest()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			p.writeTranslationError(ctx, w, dbg, neutral.KindProtocolInvariant, http.StatusRequestEntityTooLarge, "request body exceeds size limit")
			return
		}
		writeUncaughtError(ctx, w, err)
		return
	}

	var wireReq anthropicwire.MessagesRequest
	if err := json.Unmarshal(raw, &wireReq); err != nil {
		p.writeTranslationError(ctx, w, dbg, neutral.KindProtocolInvariant, http.StatusBadRequest, "request body is not a valid JSON object")
		return
	}

	provider, model, byteProxy, unknownProvider := p.splitModel(wireReq.Model)
	if unknownProvider {
		p.writeTranslationError(ctx, w, dbg, neutral.KindUnknownProvider, http.StatusBadRequest, fmt.Sprintf("unknown provider for model %q", wireReq.Model))
		return
	}
	if byteProxy {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		r.ContentLength = int64(len(raw))
		p.reverseProxy.ServeHTTP(w, r)
		return
	}

	driver, ok := p.registry.Lookup(provider)
	if !ok {
		p.writeTranslationError(ctx, w, dbg, neutral.KindUnknownProvider, http.StatusBadRequest, fmt.Sprintf("unknown provider %q", provider))
		return
	}

	prompt, _, err := anthropicwire.ToNeutral(wireReq)
	if err != nil {
		p.writeNeutralError(ctx, w, dbg, err)
		return
	}

	tools := adaptTools(driver.Name(), prompt.Tools)

	var hints drivers.Hints
	if driver.Name() == drivers.KindOpenAI {
		hints.OpenAI = p.openAIHints
		if wireReq.Metadata != nil {
			hints.OpenAI.UserID = wireReq.Metadata.UserID
		}
	}

	req := drivers.Request{
		Model:           model,
		Prompt:          prompt,
		Tools:           tools,
		MaxOutputTokens: wireReq.MaxTokens,
		Temperature:     wireReq.Temperature,
		Hints:           hints,
	}

	events, err := driver.Invoke(ctx, req)
	if err != nil {
		classification := errormap.Classify(errormap.DriverError{
			Provider:  string(driver.Name()),
			Message:   err.Error(),
			Phase:     errormap.PhasePreStream,
			Transport: true,
		})
		dbg.Error("driver_upstream", classification.HTTPStatus, string(driver.Name()), classification.Message)
		writeJSON(ctx, w, classification.Body(), classification.HTTPStatus)
		return
	}

	if wireReq.Stream {
		p.handleStreaming(ctx, w, dbg, driver.Name(), wireReq.Model, events)
		return
	}
	p.handleBuffered(ctx, w, dbg, driver.Name(), wireReq.Model, events)
}

func (p *Proxy) handleStreaming(ctx context.Context, w http.ResponseWriter, dbg *debugsink.Request, provider drivers.Kind, model string, events <-chan neutral.Event) {
	recorded := recordChunks(events, dbg)
	if err := stream.WriteStream(ctx, w, model, recorded); err != nil && ctx.Err() == nil {
		dbg.Error("driver_stream", 0, string(provider), err.Error())
	}
}

func (p *Proxy) handleBuffered(ctx context.Context, w http.ResponseWriter, dbg *debugsink.Request, provider drivers.Kind, model string, events <-chan neutral.Event) {
	recorded := recordChunks(events, dbg)
	assembled, err := stream.Assemble(ctx, recorded)
	if err != nil {
		var classified *stream.ClassifiedError
		if errors.As(err, &classified) {
			dbg.Error("driver_upstream", classified.Classification.HTTPStatus, string(provider), classified.Classification.Message)
			writeJSON(ctx, w, classified.Classification.Body(), classified.Classification.HTTPStatus)
			return
		}
		writeUncaughtError(ctx, w, err)
		return
	}

	resp, err := stream.RenderBuffered(assembled, model, p.sendReasoning)
	if err != nil {
		writeUncaughtError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, resp, http.StatusOK)
}

// recordChunks tees every event's raw bytes into the debug recorder, when
// one is buffering chunks, without altering the channel a caller further
// downstream observes.
func recordChunks(events <-chan neutral.Event, dbg *debugsink.Request) <-chan neutral.Event {
	out := make(chan neutral.Event, 1)
	go func() {
		defer close(out)
		for ev := range events {
			if len(ev.Raw) > 0 {
				dbg.AppendChunk(ev.Raw)
			}
			out <- ev
		}
	}()
	return out
}

// splitModel implements the model-prefix routing: a "provider/model"
// string selects a registered driver, a bare model name falls back to an
// implicit anthropic provider when one is registered. byteProxy is true
// when the request should fall through to the catch-all
// reverse proxy unmodified (the zero-slash, anthropic-unregistered case).
// unknownProvider is true when an explicit provider segment named a
// provider the registry doesn't recognize.
func (p *Proxy) splitModel(raw string) (provider, model string, byteProxy, unknownProvider bool) {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) == 1 {
		if p.registry.Has("anthropic") {
			return "anthropic", raw, false, false
		}
		return "", "", true, false
	}
	provider, model = parts[0], parts[1]
	if !p.registry.Has(provider) {
		return "", "", false, true
	}
	return provider, model, false, false
}

// adaptTools runs every non-builtin tool's input_schema through
// internal/schema.Adapt for kind.
func adaptTools(kind drivers.Kind, decls []neutral.ToolDeclaration) []drivers.Tool {
	provider := schema.Provider(kind)
	out := make([]drivers.Tool, 0, len(decls))
	for _, d := range decls {
		if d.BuiltinKind != "" {
			out = append(out, drivers.Tool{Name: d.Name, BuiltinKind: d.BuiltinKind, RawParams: d.RawParams})
			continue
		}
		out = append(out, drivers.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: schema.Adapt(provider, d.InputSchema),
		})
	}
	return out
}

// writeTranslationError writes one of the pre-dispatch 400 kinds
// (protocol_invariant, unsupported_media_type, unknown_provider,
// schema_adapt): the body's "type" is the kind string itself, not an
// Anthropic-taxonomy rewrite, since no driver was ever reached.
func (p *Proxy) writeTranslationError(ctx context.Context, w http.ResponseWriter, dbg *debugsink.Request, kind neutral.ErrorKind, status int, message string) {
	dbg.Error(string(kind), status, "", message)
	writeJSON(ctx, w, errormap.ErrorBody{
		Type:  "error",
		Error: errormap.ErrorDetail{Type: string(kind), Message: message},
	}, status)
}

// writeNeutralError renders a *neutral.Error produced during translation
// into the same error body shape, falling back to the uncaught-error body
// for anything that isn't a *neutral.Error (which should not happen for
// well-formed input).
func (p *Proxy) writeNeutralError(ctx context.Context, w http.ResponseWriter, dbg *debugsink.Request, err error) {
	var nerr *neutral.Error
	if errors.As(err, &nerr) {
		status := http.StatusBadRequest
		p.writeTranslationError(ctx, w, dbg, nerr.Kind, status, nerr.Message)
		return
	}
	writeUncaughtError(ctx, w, err)
}

// Start binds addr (port 0 selects a kernel-assigned port) and serves in
// the background. The returned channel receives at most one
// error from a failed Serve and is then closed; a clean Shutdown never
// sends on it.
func (p *Proxy) Start(ctx context.Context, addr string) (chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("proxy: listen on %s: %w", addr, err)
	}
	p.listener = ln
	p.srv = &http.Server{
		Handler:           p,
		ReadHeaderTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := p.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.InfoContext(ctx, "proxy listening", "addr", ln.Addr().String())
	return errCh, nil
}

// Addr returns the bound listener address, resolving a requested port 0 to
// the kernel-assigned port. Empty before Start.
func (p *Proxy) Addr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// finish or ctx to expire.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.srv == nil {
		return nil
	}
	return p.srv.Shutdown(ctx)
}
