package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/sudip358/claude-route/internal/neutral"
)

func TestAssemble_TextAndToolCall(t *testing.T) {
	events := make(chan neutral.Event, 16)
	events <- neutral.Event{Kind: neutral.EventTextStart}
	events <- neutral.Event{Kind: neutral.EventTextDelta, TextDelta: "Let me check. "}
	events <- neutral.Event{Kind: neutral.EventTextDelta, TextDelta: "One sec."}
	events <- neutral.Event{Kind: neutral.EventTextEnd}
	events <- neutral.Event{Kind: neutral.EventToolInputStart, ToolCallID: "call_1", ToolName: "Search"}
	events <- neutral.Event{Kind: neutral.EventToolInputDelta, JSONFragment: `{"q":"weather"}`}
	events <- neutral.Event{Kind: neutral.EventToolInputEnd}
	events <- neutral.Event{Kind: neutral.EventStepFinish, FinishReason: neutral.FinishToolCalls, Usage: neutral.Usage{InputTokens: 3, OutputTokens: 4}}
	events <- neutral.Event{Kind: neutral.EventFinish}
	close(events)

	got, err := Assemble(context.Background(), events)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(got.Turn.Parts) != 2 {
		t.Fatalf("got %d parts, want 2: %+v", len(got.Turn.Parts), got.Turn.Parts)
	}

	text, ok := got.Turn.Parts[0].(neutral.TextPart)
	if !ok || text.Text != "Let me check. One sec." {
		t.Fatalf("part 0 = %+v", got.Turn.Parts[0])
	}

	call, ok := got.Turn.Parts[1].(neutral.ToolCallPart)
	if !ok || call.CallID != "call_1" || call.ToolName != "Search" || call.Input["q"] != "weather" {
		t.Fatalf("part 1 = %+v", got.Turn.Parts[1])
	}

	if got.FinishReason != neutral.FinishToolCalls {
		t.Fatalf("FinishReason = %q", got.FinishReason)
	}
}

func TestAssemble_PreStreamErrorClassified(t *testing.T) {
	events := make(chan neutral.Event, 2)
	events <- neutral.Event{
		Kind:          neutral.EventError,
		ErrorProvider: "openai",
		ErrorCode:     "rate_limit_exceeded",
		ErrorType:     "tokens",
		ErrorMessage:  "context too long",
	}
	close(events)

	_, err := Assemble(context.Background(), events)
	if err == nil {
		t.Fatal("expected error")
	}

	var classified *ClassifiedError
	if !errors.As(err, &classified) {
		t.Fatalf("error is not *ClassifiedError: %v", err)
	}
	if classified.Classification.HTTPStatus != 413 {
		t.Fatalf("HTTPStatus = %d, want 413", classified.Classification.HTTPStatus)
	}
	if string(classified.Classification.Kind) != "request_too_large" {
		t.Fatalf("Kind = %q, want request_too_large", classified.Classification.Kind)
	}
}
