package anthropicdriver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func toJSONString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func buildParams(req drivers.Request) (anthropic.MessageNewParams, []string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxOutputTokens),
	}

	if req.Prompt.System != "" {
		sysBlock := anthropic.TextBlockParam{Text: req.Prompt.System}
		if req.Prompt.SystemCacheControl {
			sysBlock.CacheControl = anthropic.CacheControlEphemeralParam{Type: "ephemeral"}
		}
		params.System = []anthropic.TextBlockParam{sysBlock}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	betaSet := map[string]struct{}{}

	messages, err := buildMessages(req.Prompt.Turns, betaSet)
	if err != nil {
		return anthropic.MessageNewParams{}, nil, err
	}
	params.Messages = messages

	tools, err := buildTools(req.Tools)
	if err != nil {
		return anthropic.MessageNewParams{}, nil, err
	}
	params.Tools = tools

	betas := make([]string, 0, len(betaSet))
	for b := range betaSet {
		betas = append(betas, b)
	}
	return params, betas, nil
}

func buildMessages(turns []neutral.Turn, betaSet map[string]struct{}) ([]anthropic.MessageParam, error) {
	messages := make([]anthropic.MessageParam, 0, len(turns))

	for i, turn := range turns {
		role := anthropic.MessageParamRoleUser
		if turn.Role == neutral.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}

		isFinalAssistant := turn.Role == neutral.RoleAssistant && i == lastAssistantIndex(turns)

		blocks, err := buildContentBlocks(turn.Parts, isFinalAssistant, betaSet)
		if err != nil {
			return nil, err
		}

		// A turn-level cache_control (from the inbound message) is inherited
		// by the last block when that block carries none of its own,
		// mirroring anthropicwire.applyCacheControl's rule for the outbound
		// direction.
		if turn.CacheControl && len(blocks) > 0 {
			markCacheControlIfUnset(&blocks[len(blocks)-1])
		}

		messages = append(messages, anthropic.MessageParam{Role: role, Content: blocks})
	}

	return messages, nil
}

func lastAssistantIndex(turns []neutral.Turn) int {
	last := -1
	for i, t := range turns {
		if t.Role == neutral.RoleAssistant {
			last = i
		}
	}
	return last
}

func buildContentBlocks(parts []neutral.Part, isFinalAssistant bool, betaSet map[string]struct{}) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	seenToolCalls := map[string]bool{}

	for _, part := range parts {
		switch p := part.(type) {
		case neutral.TextPart:
			if p.Text == "" {
				continue
			}
			block := anthropic.NewTextBlock(p.Text)
			if p.CacheControl {
				markCacheControl(&block)
			}
			blocks = append(blocks, block)

		case neutral.ReasoningPart:
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfThinking: &anthropic.ThinkingBlockParam{Thinking: p.Text, Signature: p.Signature},
			})

		case neutral.ToolCallPart:
			if seenToolCalls[p.CallID] {
				continue
			}
			seenToolCalls[p.CallID] = true
			block := anthropic.NewToolUseBlock(p.CallID, p.Input, p.ToolName)
			if p.CacheControl {
				markCacheControl(&block)
			}
			blocks = append(blocks, block)

		case neutral.FilePart:
			block, beta, err := buildFileBlock(p)
			if err != nil {
				return nil, err
			}
			if beta != "" {
				betaSet[beta] = struct{}{}
			}
			if p.CacheControl {
				markCacheControl(&block)
			}
			blocks = append(blocks, block)

		case neutral.ToolResultPart:
			block, err := buildToolResultBlock(p)
			if err != nil {
				return nil, err
			}
			if p.CacheControl {
				markCacheControl(&block)
			}
			blocks = append(blocks, block)
		}
	}

	if isFinalAssistant && len(blocks) > 0 {
		last := &blocks[len(blocks)-1]
		if last.OfText != nil {
			last.OfText.Text = strings.TrimRight(last.OfText.Text, " \t\n\r")
		}
	}

	return blocks, nil
}

// markCacheControl sets the ephemeral cache_control annotation on whichever
// union member is populated. Thinking blocks are not cacheable per the
// Messages API and are left untouched.
func markCacheControl(block *anthropic.ContentBlockParamUnion) {
	switch {
	case block.OfText != nil:
		block.OfText.CacheControl = anthropic.CacheControlEphemeralParam{Type: "ephemeral"}
	case block.OfToolUse != nil:
		block.OfToolUse.CacheControl = anthropic.CacheControlEphemeralParam{Type: "ephemeral"}
	case block.OfImage != nil:
		block.OfImage.CacheControl = anthropic.CacheControlEphemeralParam{Type: "ephemeral"}
	case block.OfDocument != nil:
		block.OfDocument.CacheControl = anthropic.CacheControlEphemeralParam{Type: "ephemeral"}
	case block.OfToolResult != nil:
		block.OfToolResult.CacheControl = anthropic.CacheControlEphemeralParam{Type: "ephemeral"}
	}
}

// markCacheControlIfUnset applies markCacheControl only when the block
// doesn't already carry its own cache_control, implementing the
// message-level-cache_control-inherited-by-the-last-block rule.
func markCacheControlIfUnset(block *anthropic.ContentBlockParamUnion) {
	switch {
	case block.OfText != nil && block.OfText.CacheControl.Type == "":
		markCacheControl(block)
	case block.OfToolUse != nil && block.OfToolUse.CacheControl.Type == "":
		markCacheControl(block)
	case block.OfImage != nil && block.OfImage.CacheControl.Type == "":
		markCacheControl(block)
	case block.OfDocument != nil && block.OfDocument.CacheControl.Type == "":
		markCacheControl(block)
	case block.OfToolResult != nil && block.OfToolResult.CacheControl.Type == "":
		markCacheControl(block)
	}
}

func buildFileBlock(p neutral.FilePart) (anthropic.ContentBlockParamUnion, string, error) {
	switch {
	case p.MediaType == "application/pdf":
		var source anthropic.Base64PDFSourceParam
		if len(p.Bytes) > 0 {
			source.Data = encodeBase64(p.Bytes)
		}
		block := anthropic.NewDocumentBlock(source)
		if p.Filename != "" && block.OfDocument != nil {
			block.OfDocument.Title = anthropic.String(p.Filename)
		}
		return block, "pdfs-2024-09-25", nil

	case strings.HasPrefix(p.MediaType, "image/"):
		if len(p.Bytes) > 0 {
			return anthropic.NewImageBlockBase64(p.MediaType, encodeBase64(p.Bytes)), "", nil
		}
		return anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: p.URL}), "", nil

	default:
		return anthropic.ContentBlockParamUnion{}, "", neutral.NewError(neutral.KindUnsupportedMediaType, "unsupported file media type "+p.MediaType)
	}
}

func buildToolResultBlock(p neutral.ToolResultPart) (anthropic.ContentBlockParamUnion, error) {
	text, isErr := renderToolResultText(p)
	return anthropic.NewToolResultBlock(p.CallID, text, isErr), nil
}

// renderToolResultText collapses every tool_result output variant to the
// plain string form the Anthropic SDK's tool-result constructor accepts.
// Multi-part content(...) outputs are joined with "\n"; media items are
// dropped with a literal marker since this driver only constructs plain
// text tool_result blocks (callers needing the full content array render
// through internal/anthropicwire instead).
func renderToolResultText(p neutral.ToolResultPart) (string, bool) {
	isErr := neutral.IsError(p.Output)

	switch out := p.Output.(type) {
	case neutral.TextOutput:
		return out.Text, isErr
	case neutral.ErrorTextOutput:
		return out.Text, isErr
	case neutral.JSONOutput:
		return toJSONString(out.Value), isErr
	case neutral.ErrorJSONOutput:
		return toJSONString(out.Value), isErr
	case neutral.ContentOutput:
		parts := make([]string, 0, len(out.Parts))
		for _, item := range out.Parts {
			if item.Text != nil {
				parts = append(parts, *item.Text)
			} else if item.Media != nil {
				parts = append(parts, "[media content omitted]")
			}
		}
		return strings.Join(parts, "\n"), isErr
	default:
		return "", isErr
	}
}

func buildTools(tools []drivers.Tool) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		if t.BuiltinKind != "" {
			// Built-in tools are carried through as their raw params; the
			// SDK's ToolUnionParam has a dedicated field per built-in kind
			// in real usage, represented here via ExtraFields passthrough.
			out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				InputSchema: anthropic.ToolInputSchemaParam{ExtraFields: t.RawParams},
			}})
			continue
		}

		toolParam := anthropic.ToolParam{Name: t.Name, InputSchema: anthropic.ToolInputSchemaParam{}}
		if t.Description != "" {
			toolParam.Description = anthropic.String(t.Description)
		}
		if props, ok := t.InputSchema["properties"]; ok {
			toolParam.InputSchema.Properties = props
		}
		if req, ok := t.InputSchema["required"].([]any); ok {
			required := make([]string, 0, len(req))
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
			toolParam.InputSchema.Required = required
		}

		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out, nil
}
