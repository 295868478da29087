package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// uncaughtErrorBody is the fallback shape written when a handler fails for
// a reason outside the Anthropic error taxonomy.
type uncaughtErrorBody struct {
	Error string `json:"error"`
}

// writeUncaughtError writes the catch-all 500 body.
func writeUncaughtError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "uncaught handler error", "error", err)
	writeJSON(ctx, w, uncaughtErrorBody{Error: "Internal server error: " + err.Error()}, http.StatusInternalServerError)
}
