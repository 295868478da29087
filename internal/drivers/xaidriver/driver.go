// Package xaidriver implements drivers.Driver for xAI's Grok models.
//
// xAI's chat-completions API is wire-compatible with OpenAI's, so this
// package is a thin identity wrapper over openaidriver.NewWithTransport
// rather than a second request/response implementation: the provider
// speaks the openai transport under a different base URL and identity,
// same as azure.
package xaidriver

import (
	"net/http"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/drivers/openaidriver"
)

const defaultBaseURL = "https://api.x.ai/v1"

// New builds a Driver that speaks to baseURL (default
// "https://api.x.ai/v1" when empty) using apiKey as a bearer token.
func New(apiKey, baseURL string) *openaidriver.Driver {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return openaidriver.NewWithTransport(drivers.KindXAI, baseURL+"/chat/completions", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	})
}
