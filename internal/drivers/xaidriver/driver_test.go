package xaidriver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

func TestNew_PostsToChatCompletionsWithBearerAuth(t *testing.T) {
	var gotPath, gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	d := New("xai-key", upstream.URL)
	if d.Name() != drivers.KindXAI {
		t.Fatalf("Name() = %v, want xai", d.Name())
	}

	events, err := d.Invoke(context.Background(), drivers.Request{
		Model:  "grok-beta",
		Prompt: &neutral.Prompt{Turns: []neutral.Turn{{Role: neutral.RoleUser, Parts: []neutral.Part{neutral.TextPart{Text: "hi"}}}}},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	for range events {
	}

	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer xai-key" {
		t.Fatalf("Authorization = %q, want Bearer xai-key", gotAuth)
	}
}
