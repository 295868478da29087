package openaidriver

import (
	"encoding/json"
	"testing"

	"github.com/sudip358/claude-route/internal/anthropicwire"
	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

func TestBuildRequestBody_HintsAndMaxTokens(t *testing.T) {
	req := drivers.Request{
		Prompt: &neutral.Prompt{
			Turns: []neutral.Turn{
				{Role: neutral.RoleUser, Parts: []neutral.Part{neutral.TextPart{Text: "hi"}}},
			},
		},
		MaxOutputTokens: 512,
		Hints: drivers.Hints{
			OpenAI: drivers.OpenAIHints{
				ReasoningEffort:      "high",
				ReasoningSummaryAuto: true,
				ServiceTier:          "flex",
				UserID:               "user_123",
			},
		},
	}

	body, err := buildRequestBody(req)
	if err != nil {
		t.Fatalf("buildRequestBody: %v", err)
	}

	if body.MaxTokens != 512 {
		t.Fatalf("MaxTokens = %d, want 512 (max_completion_tokens rename)", body.MaxTokens)
	}
	if body.ParallelToolCalls == nil || !*body.ParallelToolCalls {
		t.Fatal("ParallelToolCalls must be true unconditionally (Open Question (a))")
	}
	if body.Reasoning == nil || body.Reasoning.Effort != "high" || body.Reasoning.Summary != "auto" {
		t.Fatalf("Reasoning = %+v", body.Reasoning)
	}
	if body.ServiceTier != "flex" {
		t.Fatalf("ServiceTier = %q, want flex", body.ServiceTier)
	}
	if body.User != "user_123" {
		t.Fatalf("User = %q, want user_123 (metadata.user_id passthrough)", body.User)
	}
	if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Messages[0].Content != "hi" {
		t.Fatalf("Messages = %+v", body.Messages)
	}
}

func TestBuildRequestBody_ToolCallDedup(t *testing.T) {
	req := drivers.Request{
		Prompt: &neutral.Prompt{
			Turns: []neutral.Turn{
				{Role: neutral.RoleAssistant, Parts: []neutral.Part{
					neutral.ToolCallPart{CallID: "call_1", ToolName: "Search", Input: map[string]any{"q": "x"}},
					neutral.ToolCallPart{CallID: "call_1", ToolName: "Search", Input: map[string]any{"q": "x"}},
				}},
				{Role: neutral.RoleTool, Parts: []neutral.Part{
					neutral.ToolResultPart{CallID: "call_1", Output: neutral.TextOutput{Text: "42"}},
				}},
			},
		},
	}

	body, err := buildRequestBody(req)
	if err != nil {
		t.Fatalf("buildRequestBody: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(body.Messages), body.Messages)
	}
	if len(body.Messages[0].ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1 (dedup)", len(body.Messages[0].ToolCalls))
	}
	if body.Messages[1].Role != "tool" || body.Messages[1].ToolCallID != "call_1" || body.Messages[1].Content != "42" {
		t.Fatalf("tool message = %+v", body.Messages[1])
	}
}

// TestBuildRequestBody_ToolResultRoundTrip goes through
// anthropicwire.ToNeutral rather than hand-building a neutral.Prompt, since
// ToNeutral always splits a tool_result block into its own
// neutral.Turn{Role: neutral.RoleTool, ...} — a shape buildMessages must
// handle, and a hand-built RoleUser turn carrying a ToolResultPart never
// occurs on the real decode path.
func TestBuildRequestBody_ToolResultRoundTrip(t *testing.T) {
	wireReq := anthropicwire.MessagesRequest{
		Model:     "gpt-4o",
		MaxTokens: 256,
		Messages: []anthropicwire.Message{
			{Role: "user", Content: mustRawJSON(t, "what's the weather in Boston?")},
			{Role: "assistant", Content: mustRawJSON(t, []anthropicwire.ContentBlock{
				{Type: "tool_use", ID: "toolu_1", Name: "get_weather", Input: mustRawJSON(t, map[string]any{"city": "Boston"})},
			})},
			{Role: "user", Content: mustRawJSON(t, []anthropicwire.ContentBlock{
				{Type: "tool_result", ToolUseID: "toolu_1", Content: mustRawJSON(t, "58F and windy")},
			})},
		},
	}

	prompt, _, err := anthropicwire.ToNeutral(wireReq)
	if err != nil {
		t.Fatalf("ToNeutral: %v", err)
	}

	body, err := buildRequestBody(drivers.Request{Model: "gpt-4o", Prompt: prompt, MaxOutputTokens: 256})
	if err != nil {
		t.Fatalf("buildRequestBody: %v", err)
	}

	if len(body.Messages) != 3 {
		t.Fatalf("got %d messages, want 3 (user, assistant, tool): %+v", len(body.Messages), body.Messages)
	}
	toolMsg := body.Messages[2]
	if toolMsg.Role != "tool" {
		t.Fatalf("Messages[2].Role = %q, want %q — the tool_result was dropped instead of rendered as a tool message", toolMsg.Role, "tool")
	}
	if toolMsg.ToolCallID != "toolu_1" || toolMsg.Content != "58F and windy" {
		t.Fatalf("tool message = %+v", toolMsg)
	}
}

func mustRawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestBuildTools_DropsBuiltins(t *testing.T) {
	tools := []drivers.Tool{
		{Name: "search", InputSchema: map[string]any{"type": "object"}},
		{BuiltinKind: "bash_20250124"},
	}
	out := buildTools(tools)
	if len(out) != 1 || out[0].Function.Name != "search" {
		t.Fatalf("buildTools = %+v", out)
	}
}
