package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sudip358/claude-route/internal/neutral"
)

// sseEvent is a minimally-parsed "event: <type>\ndata: <json>\n\n" block,
// used to assert on the exact event sequence WriteStream produces.
type sseEvent struct {
	Type string
	Data map[string]any
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		lines := strings.SplitN(block, "\n", 2)
		if len(lines) != 2 {
			t.Fatalf("malformed SSE block: %q", block)
		}
		eventType := strings.TrimPrefix(lines[0], "event: ")
		dataLine := strings.TrimPrefix(lines[1], "data: ")

		var data map[string]any
		if err := json.Unmarshal([]byte(dataLine), &data); err != nil {
			t.Fatalf("unmarshal SSE data %q: %v", dataLine, err)
		}
		events = append(events, sseEvent{Type: eventType, Data: data})
	}
	return events
}

func TestWriteStream_BasicTextTurn(t *testing.T) {
	events := make(chan neutral.Event, 16)
	events <- neutral.Event{Kind: neutral.EventStepStart}
	events <- neutral.Event{Kind: neutral.EventTextStart}
	events <- neutral.Event{Kind: neutral.EventTextDelta, TextDelta: "hi"}
	events <- neutral.Event{Kind: neutral.EventTextEnd}
	events <- neutral.Event{Kind: neutral.EventStepFinish, FinishReason: neutral.FinishStop, Usage: neutral.Usage{InputTokens: 10, OutputTokens: 5}}
	events <- neutral.Event{Kind: neutral.EventFinish}
	close(events)

	rec := httptest.NewRecorder()
	if err := WriteStream(context.Background(), rec, "claude-3", events); err != nil {
		t.Fatalf("WriteStream: %v", err)
	}

	got := parseSSE(t, rec.Body.String())
	wantTypes := []string{
		"message_start", "content_block_start", "content_block_delta",
		"content_block_stop", "message_delta", "message_stop",
	}
	if len(got) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(wantTypes), got)
	}
	for i, want := range wantTypes {
		if got[i].Type != want {
			t.Fatalf("event %d type = %q, want %q", i, got[i].Type, want)
		}
	}

	if got[1].Data["index"].(float64) != 0 {
		t.Fatalf("content_block_start index = %v, want 0", got[1].Data["index"])
	}
	delta := got[2].Data["delta"].(map[string]any)
	if delta["text"] != "hi" {
		t.Fatalf("delta.text = %v, want hi", delta["text"])
	}
	if got[3].Data["index"].(float64) != 0 {
		t.Fatalf("content_block_stop index = %v, want 0", got[3].Data["index"])
	}

	msgDelta := got[4].Data["delta"].(map[string]any)
	if msgDelta["stop_reason"] != "end_turn" {
		t.Fatalf("stop_reason = %v, want end_turn", msgDelta["stop_reason"])
	}
	usage := got[4].Data["usage"].(map[string]any)
	if usage["input_tokens"].(float64) != 10 || usage["output_tokens"].(float64) != 5 {
		t.Fatalf("usage = %+v", usage)
	}
	if usage["cache_creation_input_tokens"].(float64) != 0 || usage["cache_read_input_tokens"].(float64) != 0 {
		t.Fatalf("cache usage should default to 0: %+v", usage)
	}
}

func TestWriteStream_BlockIndexMonotonicity(t *testing.T) {
	events := make(chan neutral.Event, 32)
	events <- neutral.Event{Kind: neutral.EventStepStart}
	events <- neutral.Event{Kind: neutral.EventTextStart}
	events <- neutral.Event{Kind: neutral.EventTextDelta, TextDelta: "a"}
	events <- neutral.Event{Kind: neutral.EventTextEnd}
	events <- neutral.Event{Kind: neutral.EventToolInputStart, ToolCallID: "call_1", ToolName: "Search"}
	events <- neutral.Event{Kind: neutral.EventToolInputDelta, JSONFragment: `{"q":`}
	events <- neutral.Event{Kind: neutral.EventToolInputDelta, JSONFragment: `"x"}`}
	events <- neutral.Event{Kind: neutral.EventToolInputEnd}
	events <- neutral.Event{Kind: neutral.EventStepFinish, FinishReason: neutral.FinishToolCalls}
	events <- neutral.Event{Kind: neutral.EventFinish}
	close(events)

	rec := httptest.NewRecorder()
	if err := WriteStream(context.Background(), rec, "claude-3", events); err != nil {
		t.Fatalf("WriteStream: %v", err)
	}

	got := parseSSE(t, rec.Body.String())

	var starts, stops []int
	for _, ev := range got {
		switch ev.Type {
		case "content_block_start":
			starts = append(starts, int(ev.Data["index"].(float64)))
		case "content_block_stop":
			stops = append(stops, int(ev.Data["index"].(float64)))
		}
	}

	if len(starts) != 2 || starts[0] != 0 || starts[1] != 1 {
		t.Fatalf("content_block_start indices = %v, want [0 1]", starts)
	}
	if len(stops) != 2 || stops[0] != 0 || stops[1] != 1 {
		t.Fatalf("content_block_stop indices = %v, want [0 1]", stops)
	}

	seen := map[int]bool{}
	for _, idx := range starts {
		if seen[idx] {
			t.Fatalf("index %d used by two content_block_start events", idx)
		}
		seen[idx] = true
	}
}

func TestWriteStream_CachedTokenPreservation(t *testing.T) {
	cached := 7
	events := make(chan neutral.Event, 8)
	events <- neutral.Event{Kind: neutral.EventStepStart}
	events <- neutral.Event{Kind: neutral.EventStepFinish, FinishReason: neutral.FinishStop, Usage: neutral.Usage{InputTokens: 20, OutputTokens: 1, CachedInputTokens: &cached}}
	events <- neutral.Event{Kind: neutral.EventFinish}
	close(events)

	rec := httptest.NewRecorder()
	if err := WriteStream(context.Background(), rec, "claude-3", events); err != nil {
		t.Fatalf("WriteStream: %v", err)
	}

	got := parseSSE(t, rec.Body.String())
	for _, ev := range got {
		if ev.Type != "message_delta" {
			continue
		}
		usage := ev.Data["usage"].(map[string]any)
		if usage["cache_read_input_tokens"].(float64) != 7 {
			t.Fatalf("cache_read_input_tokens = %v, want 7", usage["cache_read_input_tokens"])
		}
		return
	}
	t.Fatal("no message_delta event found")
}

func TestWriteStream_OpenAIServerErrorRewrite(t *testing.T) {
	events := make(chan neutral.Event, 4)
	events <- neutral.Event{Kind: neutral.EventStepStart}
	events <- neutral.Event{
		Kind:          neutral.EventError,
		ErrorProvider: "openai",
		ErrorCode:     "server_error",
		ErrorMessage:  "boom",
	}
	close(events)

	rec := httptest.NewRecorder()
	if err := WriteStream(context.Background(), rec, "claude-3", events); err != nil {
		t.Fatalf("WriteStream: %v", err)
	}

	got := parseSSE(t, rec.Body.String())
	last := got[len(got)-1]
	if last.Type != "error" {
		t.Fatalf("last event type = %q, want error", last.Type)
	}
	errObj := last.Data["error"].(map[string]any)
	if errObj["type"] != "rate_limit_error" {
		t.Fatalf("error.type = %v, want rate_limit_error", errObj["type"])
	}

	if rec.Code != 200 {
		t.Fatalf("HTTP status = %d, want 200 (already flushed headers)", rec.Code)
	}
}
