package proxy

import (
	_ "embed"
	"log/slog"
	"net/http"
)

//go:embed models.json
var modelsJSON []byte

// modelsHandler returns a static list of the models this adapter can route
// to, ids already in "provider/model" form. Real upstream /v1/models
// endpoints don't agree on auth mode or id shape across providers, so this
// adapter serves a fixed snapshot instead of aggregating five live calls on
// every request.
//
// The response merges fields from both Anthropic's and OpenAI's /v1/models
// shapes, on the assumption that most clients ignore fields they don't
// recognize.
func modelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(modelsJSON); err != nil {
			slog.ErrorContext(r.Context(), "failed to write response", "error", err)
		}
	}
}
