// Package googledriver implements drivers.Driver over Google's Gemini API
// via google.golang.org/genai.
//
// Grounded on zhengjr9-dify-agent's internal/a2a/agent.go for the genai
// Content/Part construction idiom (Role + []*Part, a *Part per content
// item rather than a single polymorphic field); the streaming and
// tool-declaration plumbing around that core is this adapter's own, built
// for a multi-turn tool-using prompt rather than a single fixed exchange.
package googledriver

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

// Driver calls the Gemini API through the official genai client.
type Driver struct {
	client *genai.Client
}

// New builds a Driver authorized by apiKey. A non-empty baseURL is passed
// to genai as HTTPOptions.BaseURL, overriding the default Gemini API
// endpoint; an empty baseURL keeps genai's default.
func New(ctx context.Context, apiKey, baseURL string) (*Driver, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("googledriver: %w", err)
	}
	return &Driver{client: client}, nil
}

func (d *Driver) Name() drivers.Kind { return drivers.KindGoogle }

// Invoke drives genai's streaming call and republishes every chunk onto a
// neutral.Event channel. Like the other drivers, it reports pre-call
// construction failures as a returned error and everything else (a
// mid-stream API failure, a dropped connection) as a neutral error event.
func (d *Driver) Invoke(ctx context.Context, req drivers.Request) (<-chan neutral.Event, error) {
	contents, cfg, err := buildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("googledriver: %w", err)
	}

	out := make(chan neutral.Event, 16)
	go pump(ctx, d.client, req.Model, contents, cfg, out)
	return out, nil
}
