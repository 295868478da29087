package anthropicwire

import (
	"encoding/json"
	"testing"

	"github.com/sudip358/claude-route/internal/neutral"
)

func decodeBlocks(t *testing.T, content json.RawMessage) []ContentBlock {
	t.Helper()
	var blocks []ContentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		t.Fatalf("decode rendered content: %v", err)
	}
	return blocks
}

func TestFromNeutralDropsEmptyTextParts(t *testing.T) {
	turn := neutral.Turn{Role: neutral.RoleAssistant, Parts: []neutral.Part{
		neutral.TextPart{Text: ""},
		neutral.TextPart{Text: "hi"},
	}}

	result, err := FromNeutral(turn, RenderOptions{})
	if err != nil {
		t.Fatalf("FromNeutral() error = %v", err)
	}
	blocks := decodeBlocks(t, result.Message.Content)
	if len(blocks) != 1 || blocks[0].Text != "hi" {
		t.Fatalf("blocks = %+v, want single text block 'hi'", blocks)
	}
}

func TestFromNeutralReasoningGatedBySendReasoning(t *testing.T) {
	turn := neutral.Turn{Role: neutral.RoleAssistant, Parts: []neutral.Part{
		neutral.ReasoningPart{Text: "because"},
	}}

	result, err := FromNeutral(turn, RenderOptions{SendReasoning: false})
	if err != nil {
		t.Fatalf("FromNeutral() error = %v", err)
	}
	if len(decodeBlocks(t, result.Message.Content)) != 0 {
		t.Fatalf("expected reasoning block dropped")
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(result.Warnings))
	}

	result, err = FromNeutral(turn, RenderOptions{SendReasoning: true})
	if err != nil {
		t.Fatalf("FromNeutral() error = %v", err)
	}
	blocks := decodeBlocks(t, result.Message.Content)
	if len(blocks) != 1 || blocks[0].Type != "thinking" {
		t.Fatalf("blocks = %+v, want a single thinking block", blocks)
	}
}

func TestFromNeutralDuplicateToolCallSuppression(t *testing.T) {
	turn := neutral.Turn{Role: neutral.RoleAssistant, Parts: []neutral.Part{
		neutral.ToolCallPart{CallID: "c1", ToolName: "lookup", Input: map[string]any{"q": "first"}},
		neutral.ToolCallPart{CallID: "c1", ToolName: "lookup", Input: map[string]any{"q": "second"}},
	}}

	result, err := FromNeutral(turn, RenderOptions{})
	if err != nil {
		t.Fatalf("FromNeutral() error = %v", err)
	}
	blocks := decodeBlocks(t, result.Message.Content)
	if len(blocks) != 1 {
		t.Fatalf("blocks = %+v, want 1 (duplicate suppressed)", blocks)
	}
	var input map[string]any
	_ = json.Unmarshal(blocks[0].Input, &input)
	if input["q"] != "first" {
		t.Fatalf("input = %v, want first occurrence retained", input)
	}
}

func TestFromNeutralRightTrimsFinalAssistantText(t *testing.T) {
	turn := neutral.Turn{Role: neutral.RoleAssistant, Parts: []neutral.Part{
		neutral.TextPart{Text: "trailing spaces   \n"},
	}}

	result, err := FromNeutral(turn, RenderOptions{IsFinalAssistantBlock: true})
	if err != nil {
		t.Fatalf("FromNeutral() error = %v", err)
	}
	blocks := decodeBlocks(t, result.Message.Content)
	if blocks[0].Text != "trailing spaces" {
		t.Fatalf("Text = %q, want trimmed", blocks[0].Text)
	}
}

func TestFromNeutralCacheControlInheritsOnLastBlock(t *testing.T) {
	turn := neutral.Turn{Role: neutral.RoleAssistant, Parts: []neutral.Part{
		neutral.TextPart{Text: "a"},
		neutral.TextPart{Text: "b"},
	}}

	result, err := FromNeutral(turn, RenderOptions{MessageCacheControl: &CacheControl{Type: "ephemeral"}})
	if err != nil {
		t.Fatalf("FromNeutral() error = %v", err)
	}
	blocks := decodeBlocks(t, result.Message.Content)
	if blocks[0].CacheControl != nil {
		t.Fatalf("first block should not inherit cache_control")
	}
	if blocks[1].CacheControl == nil || blocks[1].CacheControl.Type != "ephemeral" {
		t.Fatalf("last block should inherit cache_control, got %+v", blocks[1].CacheControl)
	}
}

func TestFromNeutralPDFAddsBetaTag(t *testing.T) {
	turn := neutral.Turn{Role: neutral.RoleUser, Parts: []neutral.Part{
		neutral.FilePart{Bytes: []byte("%PDF-1.4"), MediaType: "application/pdf"},
	}}

	result, err := FromNeutral(turn, RenderOptions{})
	if err != nil {
		t.Fatalf("FromNeutral() error = %v", err)
	}
	if _, ok := result.Betas[BetaPDFs]; !ok {
		t.Fatalf("expected %s beta tag, got %v", BetaPDFs, result.Betas)
	}
}

func TestFromNeutralUnsupportedMediaTypeFails(t *testing.T) {
	turn := neutral.Turn{Role: neutral.RoleUser, Parts: []neutral.Part{
		neutral.FilePart{Bytes: []byte("data"), MediaType: "audio/mpeg"},
	}}

	_, err := FromNeutral(turn, RenderOptions{})
	if err == nil {
		t.Fatalf("expected unsupported_media_type error")
	}
}

func TestValidateSystemTurnOrderingRejectsInterruptedSystem(t *testing.T) {
	turns := []neutral.Turn{
		{Role: neutral.RoleSystem},
		{Role: neutral.RoleUser},
		{Role: neutral.RoleSystem},
	}
	if err := ValidateSystemTurnOrdering(turns); err == nil {
		t.Fatalf("expected protocol_invariant error for interrupted system turns")
	}
}

func TestValidateSystemTurnOrderingAllowsContiguous(t *testing.T) {
	turns := []neutral.Turn{
		{Role: neutral.RoleSystem},
		{Role: neutral.RoleSystem},
		{Role: neutral.RoleUser},
	}
	if err := ValidateSystemTurnOrdering(turns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
