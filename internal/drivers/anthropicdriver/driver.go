// Package anthropicdriver implements drivers.Driver over Anthropic itself,
// used when a client addresses a model with an explicit "anthropic/"
// prefix, or with no provider prefix at all when the anthropic driver is
// registered as the implicit default.
//
// Uses the same http.Client/option.WithHTTPClient construction and
// .AsAny() union-discrimination pattern anthropic-sdk-go callers commonly
// use for reading its content block and tool-choice unions, turned around
// here to read anthropic-sdk-go's streaming event union instead.
package anthropicdriver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/oauth2"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

// Driver calls the real Anthropic Messages API via anthropic-sdk-go.
type Driver struct {
	client anthropic.Client
}

// New builds a Driver authorized either by a static API key or, when ts is
// non-nil, by an OAuth2 token source.
func New(apiKey, baseURL string, ts oauth2.TokenSource) (*Driver, error) {
	opts := []option.RequestOption{
		option.WithRequestTimeout(1 * time.Hour),
	}

	switch {
	case ts != nil:
		opts = append(opts, option.WithHTTPClient(&http.Client{Transport: &oauth2.Transport{Source: ts}}))
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	default:
		return nil, fmt.Errorf("anthropicdriver: either an API key or a token source is required")
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Driver{client: anthropic.NewClient(opts...)}, nil
}

func (d *Driver) Name() drivers.Kind { return drivers.KindAnthropic }

// Invoke drives the SDK's streaming call and republishes every event onto
// a neutral.Event channel. Cancellation of ctx is forwarded to the SDK's
// own request context, which stops the upstream HTTP body read.
func (d *Driver) Invoke(ctx context.Context, req drivers.Request) (<-chan neutral.Event, error) {
	params, betas, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	opts := make([]option.RequestOption, 0, 1)
	if len(betas) > 0 {
		opts = append(opts, option.WithHeader("anthropic-beta", joinBetas(betas)))
	}

	stream := d.client.Messages.NewStreaming(ctx, params, opts...)

	out := make(chan neutral.Event, 16)
	go pump(ctx, stream, out)
	return out, nil
}

func joinBetas(betas []string) string {
	s := ""
	for i, b := range betas {
		if i > 0 {
			s += ","
		}
		s += b
	}
	return s
}
