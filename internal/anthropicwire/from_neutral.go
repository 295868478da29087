package anthropicwire

import (
	"encoding/json"
	"strings"

	"github.com/sudip358/claude-route/internal/neutral"
)

// BetaPDFs is the beta capability tag added to a response's outgoing beta
// set when it carries a PDF file part.
const BetaPDFs = "pdfs-2024-09-25"

// RenderOptions configures FromNeutral's lossy choices.
type RenderOptions struct {
	// SendReasoning selects whether reasoning parts become thinking blocks
	// (true) or are dropped with a warning (false).
	SendReasoning bool

	// IsFinalAssistantBlock marks the turn as the last assistant turn of
	// the prompt, so its final text part gets right-trimmed.
	IsFinalAssistantBlock bool

	// MessageCacheControl is the message-level cache_control that the last
	// emitted block inherits when it has none of its own.
	MessageCacheControl *CacheControl
}

// RenderResult is FromNeutral's output: one wire message plus the set of
// beta capability tags it requires and any non-fatal warnings recorded
// while rendering (e.g. a reasoning part dropped because SendReasoning was
// false).
type RenderResult struct {
	Message  Message
	Betas    map[string]struct{}
	Warnings []string
}

// ValidateSystemTurnOrdering enforces that all system turns in a rendered
// sequence are contiguous: if a system turn appears, is interrupted by a
// non-system turn, and then another system turn appears, the sequence is
// invalid. Callers that render a multi-turn output (the stream transcoder's
// non-streaming aggregation path) run this once over the full turn list
// before calling FromNeutral per turn.
func ValidateSystemTurnOrdering(turns []neutral.Turn) error {
	sawSystem, sawNonSystemAfterSystem := false, false
	for _, t := range turns {
		if t.Role == neutral.RoleSystem {
			if sawNonSystemAfterSystem {
				return neutral.NewError(neutral.KindProtocolInvariant, "system turns separated by non-system turns")
			}
			sawSystem = true
			continue
		}
		if sawSystem {
			sawNonSystemAfterSystem = true
		}
	}
	return nil
}

// FromNeutral renders one neutral turn into an Anthropic wire message.
func FromNeutral(turn neutral.Turn, opts RenderOptions) (RenderResult, error) {
	result := RenderResult{Betas: map[string]struct{}{}}

	blocks := make([]ContentBlock, 0, len(turn.Parts))
	seenToolCalls := map[string]bool{}

	for _, part := range turn.Parts {
		switch p := part.(type) {
		case neutral.TextPart:
			if p.Text == "" {
				continue
			}
			blocks = append(blocks, ContentBlock{Type: "text", Text: p.Text})

		case neutral.ReasoningPart:
			if !opts.SendReasoning {
				result.Warnings = append(result.Warnings, "reasoning part dropped: sendReasoning is false")
				continue
			}
			blocks = append(blocks, ContentBlock{Type: "thinking", Thinking: p.Text, Signature: p.Signature})

		case neutral.ToolCallPart:
			if seenToolCalls[p.CallID] {
				continue
			}
			seenToolCalls[p.CallID] = true
			input, err := json.Marshal(p.Input)
			if err != nil {
				return RenderResult{}, neutral.WrapError(neutral.KindProtocolInvariant, "marshal tool_call input", err)
			}
			blocks = append(blocks, ContentBlock{Type: "tool_use", ID: p.CallID, Name: p.ToolName, Input: input})

		case neutral.FilePart:
			block, beta, err := renderFilePart(p)
			if err != nil {
				return RenderResult{}, err
			}
			if beta != "" {
				result.Betas[beta] = struct{}{}
			}
			blocks = append(blocks, block)

		case neutral.ToolResultPart:
			block, err := renderToolResult(p)
			if err != nil {
				return RenderResult{}, err
			}
			blocks = append(blocks, block)

		default:
			return RenderResult{}, neutral.NewError(neutral.KindProtocolInvariant, "unknown neutral part kind in FromNeutral")
		}
	}

	if opts.IsFinalAssistantBlock && len(blocks) > 0 {
		last := &blocks[len(blocks)-1]
		if last.Type == "text" {
			last.Text = strings.TrimRight(last.Text, " \t\n\r")
		}
	}

	applyCacheControl(blocks, opts.MessageCacheControl)

	role := string(turn.Role)
	if turn.Role == neutral.RoleTool {
		// tool_result blocks are rendered inside a user-role wire message
		// per the Messages API (there is no wire "tool" role).
		role = "user"
	}

	content, err := json.Marshal(blocks)
	if err != nil {
		return RenderResult{}, neutral.WrapError(neutral.KindProtocolInvariant, "marshal rendered content blocks", err)
	}

	result.Message = Message{Role: role, Content: content}
	return result, nil
}

// applyCacheControl implements the cache_control inheritance rule: a block
// keeps its own cache_control if set; otherwise the last block of the
// message inherits the message-level cache_control. All other blocks
// without their own stay unset.
func applyCacheControl(blocks []ContentBlock, messageLevel *CacheControl) {
	if messageLevel == nil || len(blocks) == 0 {
		return
	}
	last := &blocks[len(blocks)-1]
	if last.CacheControl == nil {
		last.CacheControl = messageLevel
	}
}

func renderFilePart(p neutral.FilePart) (ContentBlock, string, error) {
	blockType, beta := "", ""
	switch {
	case p.MediaType == "application/pdf":
		blockType, beta = "document", BetaPDFs
	case strings.HasPrefix(p.MediaType, "image/"):
		blockType = "image"
	default:
		return ContentBlock{}, "", neutral.NewError(neutral.KindUnsupportedMediaType, "file part media type "+p.MediaType+" is not supported")
	}

	var source Source
	if len(p.Bytes) > 0 {
		source = Source{Type: "base64", MediaType: p.MediaType, Data: encodeBase64(p.Bytes)}
	} else {
		source = Source{Type: "url", MediaType: p.MediaType, URL: p.URL}
	}

	return ContentBlock{Type: blockType, Source: &source}, beta, nil
}

func renderToolResult(p neutral.ToolResultPart) (ContentBlock, error) {
	block := ContentBlock{Type: "tool_result", ToolUseID: p.CallID, IsError: neutral.IsError(p.Output)}

	switch out := p.Output.(type) {
	case neutral.TextOutput:
		content, _ := json.Marshal(out.Text)
		block.Content = content
	case neutral.ErrorTextOutput:
		content, _ := json.Marshal(out.Text)
		block.Content = content
	case neutral.JSONOutput:
		content, err := json.Marshal(out.Value)
		if err != nil {
			return ContentBlock{}, neutral.WrapError(neutral.KindProtocolInvariant, "marshal tool_result json output", err)
		}
		block.Content = content
	case neutral.ErrorJSONOutput:
		content, err := json.Marshal(out.Value)
		if err != nil {
			return ContentBlock{}, neutral.WrapError(neutral.KindProtocolInvariant, "marshal tool_result error_json output", err)
		}
		block.Content = content
	case neutral.ContentOutput:
		blocks := make([]ContentBlock, 0, len(out.Parts))
		for _, item := range out.Parts {
			if item.Text != nil {
				blocks = append(blocks, ContentBlock{Type: "text", Text: *item.Text})
				continue
			}
			if item.Media != nil {
				if item.Media.MediaType == "application/pdf" {
					// Lossy fallback: the document-rendering path for a
					// PDF tool_result content item is not implemented;
					// this literal is non-stable and may change.
					blocks = append(blocks, ContentBlock{Type: "text", Text: "[document content omitted]"})
					continue
				}
				fileBlock, _, err := renderFilePart(*item.Media)
				if err != nil {
					return ContentBlock{}, err
				}
				blocks = append(blocks, fileBlock)
			}
		}
		content, err := json.Marshal(blocks)
		if err != nil {
			return ContentBlock{}, neutral.WrapError(neutral.KindProtocolInvariant, "marshal tool_result content output", err)
		}
		block.Content = content
	default:
		return ContentBlock{}, neutral.NewError(neutral.KindProtocolInvariant, "unknown tool_result output kind")
	}

	return block, nil
}
