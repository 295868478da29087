// Package azuredriver implements drivers.Driver for Azure OpenAI, another
// thin identity wrapper over openaidriver's chat-completions wire format.
// Azure's deployment + api-version URL shape and its "api-key" header
// (rather than a bearer token) are the only two things
// that differ from plain OpenAI, so both are handled entirely in the
// completions URL and authorize function handed to
// openaidriver.NewWithTransport.
package azuredriver

import (
	"fmt"
	"net/http"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/drivers/openaidriver"
)

const defaultAPIVersion = "2024-08-01-preview"

// New builds a Driver against an Azure OpenAI resource. baseURL is the
// resource endpoint (e.g. "https://my-resource.openai.azure.com"),
// deployment is the deployment name standing in for the model, and
// apiVersion defaults to defaultAPIVersion when empty.
func New(apiKey, baseURL, deployment, apiVersion string) *openaidriver.Driver {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	completionsURL := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", baseURL, deployment, apiVersion)
	return openaidriver.NewWithTransport(drivers.KindAzure, completionsURL, func(r *http.Request) {
		r.Header.Set("api-key", apiKey)
	})
}
