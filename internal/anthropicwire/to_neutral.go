package anthropicwire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sudip358/claude-route/internal/media"
	"github.com/sudip358/claude-route/internal/neutral"
)

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// ToolTable maps a tool_use id to the tool name it invoked, built while
// walking the prompt so a later tool_result in the same request can resolve
// which tool it is answering.
type ToolTable map[string]string

// ToNeutral converts an inbound MessagesRequest into the neutral prompt
// model. It returns the prompt plus the tool table used to resolve
// tool_result blocks, so callers can inspect it for diagnostics.
func ToNeutral(req MessagesRequest) (*neutral.Prompt, ToolTable, error) {
	system, systemCacheControl, err := decodeSystem(req.System)
	if err != nil {
		return nil, nil, err
	}

	tools := make([]neutral.ToolDeclaration, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, decodeTool(t))
	}

	table := ToolTable{}
	turns := make([]neutral.Turn, 0, len(req.Messages))

	for i, msg := range req.Messages {
		blocks, err := decodeContent(msg.Content)
		if err != nil {
			return nil, nil, neutral.WrapError(neutral.KindProtocolInvariant, fmt.Sprintf("message %d: decode content", i), err)
		}

		turn, extraToolTurns, err := decodeMessage(msg, blocks, table)
		if err != nil {
			return nil, nil, err
		}
		if len(turn.Parts) > 0 {
			turns = append(turns, turn)
		}
		turns = append(turns, extraToolTurns...)
	}

	return &neutral.Prompt{System: system, SystemCacheControl: systemCacheControl, Turns: turns, Tools: tools}, table, nil
}

// decodeSystem concatenates an Anthropic `system` field's text blocks with
// "\n", since the driver surface only accepts a single string. The field
// may be a bare string (which never carries cache_control) or an array of
// text blocks, in which case a cache_control on any block reports true.
func decodeSystem(raw json.RawMessage) (string, bool, error) {
	if len(raw) == 0 {
		return "", false, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, false, nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", false, neutral.WrapError(neutral.KindProtocolInvariant, "system must be a string or an array of text blocks", err)
	}

	out, cacheControl := "", false
	for i, b := range blocks {
		if b.Type != "text" {
			return "", false, neutral.NewError(neutral.KindProtocolInvariant, fmt.Sprintf("system block %d: only text blocks are supported", i))
		}
		if i > 0 {
			out += "\n"
		}
		out += b.Text
		if b.CacheControl != nil {
			cacheControl = true
		}
	}
	return out, cacheControl, nil
}

func decodeTool(t Tool) neutral.ToolDeclaration {
	if t.Type != "" && t.Type != "custom" {
		raw := map[string]any{"type": t.Type, "name": t.Name}
		return neutral.ToolDeclaration{Name: t.Name, BuiltinKind: t.Type, RawParams: raw}
	}

	var schema map[string]any
	if len(t.InputSchema) > 0 {
		_ = json.Unmarshal(t.InputSchema, &schema)
	}
	return neutral.ToolDeclaration{Name: t.Name, Description: t.Description, InputSchema: schema}
}

// decodeContent decodes a message's Content field, which is either a bare
// string (shorthand for one text block) or an array of ContentBlock.
func decodeContent(raw json.RawMessage) ([]ContentBlock, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return nil, nil
		}
		return []ContentBlock{{Type: "text", Text: asString}}, nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// decodeMessage converts one wire message into a neutral turn. tool_result
// blocks are not allowed to sit alongside other block types in the same
// user message per this adapter's model, so a message containing one or
// more tool_result blocks is split into its own tool turn per block,
// returned via extraToolTurns; any non-tool_result blocks in the same
// message still form the primary returned turn.
func decodeMessage(msg Message, blocks []ContentBlock, table ToolTable) (turn neutral.Turn, extraToolTurns []neutral.Turn, err error) {
	role := neutral.Role(msg.Role)
	parts := make([]neutral.Part, 0, len(blocks))

	for i, b := range blocks {
		switch b.Type {
		case "text":
			parts = append(parts, neutral.TextPart{Text: b.Text, CacheControl: b.CacheControl != nil})

		case "tool_use":
			var input map[string]any
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &input); err != nil {
					return turn, nil, neutral.WrapError(neutral.KindProtocolInvariant, "tool_use.input must be a JSON object", err)
				}
			}
			table[b.ID] = b.Name
			parts = append(parts, neutral.ToolCallPart{CallID: b.ID, ToolName: b.Name, Input: input, CacheControl: b.CacheControl != nil})

		case "tool_result":
			toolTurn, err := decodeToolResult(b, table)
			if err != nil {
				return turn, nil, err
			}
			extraToolTurns = append(extraToolTurns, toolTurn)

		case "image", "document":
			part, err := decodeFilePart(b)
			if err != nil {
				return turn, nil, err
			}
			parts = append(parts, part)

		case "thinking":
			parts = append(parts, neutral.ReasoningPart{Text: b.Thinking, Signature: b.Signature})

		case "redacted_thinking":
			parts = append(parts, neutral.ReasoningPart{Text: b.Data})

		default:
			return turn, nil, neutral.NewError(neutral.KindProtocolInvariant, fmt.Sprintf("message block %d: unsupported block type %q", i, b.Type))
		}
	}

	return neutral.Turn{Role: role, Parts: parts, CacheControl: msg.CacheControl != nil}, extraToolTurns, nil
}

func decodeToolResult(b ContentBlock, table ToolTable) (neutral.Turn, error) {
	if _, ok := table[b.ToolUseID]; !ok {
		return neutral.Turn{}, neutral.NewError(neutral.KindProtocolInvariant, fmt.Sprintf("tool_result %q has no preceding tool_use", b.ToolUseID))
	}

	output, err := decodeToolResultOutput(b)
	if err != nil {
		return neutral.Turn{}, err
	}

	part := neutral.ToolResultPart{CallID: b.ToolUseID, Output: output, CacheControl: b.CacheControl != nil}
	return neutral.Turn{Role: neutral.RoleTool, Parts: []neutral.Part{part}}, nil
}

// decodeToolResultOutput derives a tool_result's output from its Content
// field: a bare string becomes text, an array of text/image parts becomes
// content(...). IsError selects the error-output variants.
func decodeToolResultOutput(b ContentBlock) (neutral.ToolResultOutput, error) {
	if len(b.Content) == 0 {
		if b.IsError {
			return neutral.ErrorTextOutput{}, nil
		}
		return neutral.TextOutput{}, nil
	}

	var asString string
	if err := json.Unmarshal(b.Content, &asString); err == nil {
		if b.IsError {
			return neutral.ErrorTextOutput{Text: asString}, nil
		}
		return neutral.TextOutput{Text: asString}, nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(b.Content, &blocks); err != nil {
		return nil, neutral.WrapError(neutral.KindProtocolInvariant, "tool_result.content must be a string or an array of blocks", err)
	}

	items := make([]neutral.ContentItem, 0, len(blocks))
	for i, cb := range blocks {
		switch cb.Type {
		case "text":
			text := cb.Text
			items = append(items, neutral.ContentItem{Text: &text})
		case "image", "document":
			part, err := decodeFilePart(cb)
			if err != nil {
				return nil, err
			}
			items = append(items, neutral.ContentItem{Media: &part})
		default:
			return nil, neutral.NewError(neutral.KindProtocolInvariant, fmt.Sprintf("tool_result content block %d: unsupported block type %q", i, cb.Type))
		}
	}

	if b.IsError {
		return neutral.ErrorJSONOutput{Value: items}, nil
	}
	return neutral.ContentOutput{Parts: items}, nil
}

func decodeFilePart(b ContentBlock) (neutral.FilePart, error) {
	if b.Source == nil {
		return neutral.FilePart{}, neutral.NewError(neutral.KindProtocolInvariant, fmt.Sprintf("%s block missing source", b.Type))
	}

	mediaType := b.Source.MediaType

	switch b.Source.Type {
	case "base64":
		data, err := decodeBase64(b.Source.Data)
		if err != nil {
			return neutral.FilePart{}, neutral.WrapError(neutral.KindUnsupportedMediaType, "invalid base64 source data", err)
		}
		if mediaType == "" {
			mediaType = media.DetectMIMEType(data, "", "", "application/octet-stream")
		}
		return neutral.FilePart{Bytes: data, MediaType: mediaType, CacheControl: b.CacheControl != nil}, nil
	case "url":
		return neutral.FilePart{URL: b.Source.URL, MediaType: mediaType, CacheControl: b.CacheControl != nil}, nil
	default:
		return neutral.FilePart{}, neutral.NewError(neutral.KindUnsupportedMediaType, fmt.Sprintf("unsupported source type %q", b.Source.Type))
	}
}
