package openaidriver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

// chatMessage is the OpenAI chat-completions message shape this driver
// emits. Content is either a plain string or a []contentPart, so it's typed
// any and built by the helpers below rather than marshaled from a struct
// with a fixed Content field.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content,omitempty"`
	ToolCalls  []toolCallWire `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type contentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *imageURLRef `json:"image_url,omitempty"`
}

type imageURLRef struct {
	URL string `json:"url"`
}

type toolCallWire struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolWire struct {
	Type     string       `json:"type"`
	Function functionWire `json:"function"`
}

type functionWire struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type reasoningWire struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// chatCompletionsRequest is the request body this driver posts to
// POST /chat/completions. Fields are tagged omitempty throughout so an
// unset optional knob (temperature, service_tier, reasoning) never appears
// in the outgoing JSON: provider hints carry per-provider knobs that do
// not belong in the neutral prompt.
type chatCompletionsRequest struct {
	Model             string         `json:"model"`
	Messages          []chatMessage  `json:"messages"`
	Stream            bool           `json:"stream"`
	MaxTokens         int            `json:"max_completion_tokens,omitempty"`
	Temperature       *float64       `json:"temperature,omitempty"`
	Tools             []toolWire     `json:"tools,omitempty"`
	ParallelToolCalls *bool          `json:"parallel_tool_calls,omitempty"`
	ServiceTier       string         `json:"service_tier,omitempty"`
	Reasoning         *reasoningWire `json:"reasoning,omitempty"`
	User              string         `json:"user,omitempty"`
}

// buildRequestBody translates a neutral prompt into an OpenAI
// chat-completions request, applying the OpenAI provider hints:
// reasoning.effort, reasoning.summary="auto", service_tier, user,
// parallel_tool_calls=true unconditionally for every model, and the
// max_tokens -> max_completion_tokens rename.
func buildRequestBody(req drivers.Request) (*chatCompletionsRequest, error) {
	body := &chatCompletionsRequest{
		Model:       req.Model,
		Stream:      true,
		Temperature: req.Temperature,
	}

	parallel := true
	body.ParallelToolCalls = &parallel

	if req.MaxOutputTokens > 0 {
		body.MaxTokens = req.MaxOutputTokens
	}

	hints := req.Hints.OpenAI
	if hints.ReasoningEffort != "" {
		body.Reasoning = &reasoningWire{Effort: hints.ReasoningEffort}
		if hints.ReasoningSummaryAuto {
			body.Reasoning.Summary = "auto"
		}
	}
	if hints.ServiceTier != "" {
		body.ServiceTier = hints.ServiceTier
	}
	if hints.UserID != "" {
		body.User = hints.UserID
	}

	messages, err := buildMessages(req.Prompt)
	if err != nil {
		return nil, err
	}
	body.Messages = messages

	body.Tools = buildTools(req.Tools)

	return body, nil
}

func buildMessages(prompt *neutral.Prompt) ([]chatMessage, error) {
	var out []chatMessage

	if prompt.System != "" {
		out = append(out, chatMessage{Role: "system", Content: prompt.System})
	}

	for _, turn := range prompt.Turns {
		switch turn.Role {
		case neutral.RoleUser, neutral.RoleTool:
			msgs, err := buildUserOrToolMessages(turn)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)
		case neutral.RoleAssistant:
			msg, err := buildAssistantMessage(turn)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
	}

	return out, nil
}

// buildUserOrToolMessages splits a turn into one "user" message (for
// text/file parts) plus one "tool" message per ToolResultPart, since OpenAI
// has no equivalent of Anthropic's single user turn carrying both free text
// and tool_result blocks side by side. It is also the sole handler for
// RoleTool turns, which anthropicwire.ToNeutral always emits as their own
// turn containing nothing but ToolResultPart values.
func buildUserOrToolMessages(turn neutral.Turn) ([]chatMessage, error) {
	var (
		out   []chatMessage
		parts []contentPart
	)

	for _, p := range turn.Parts {
		switch v := p.(type) {
		case neutral.TextPart:
			parts = append(parts, contentPart{Type: "text", Text: v.Text})
		case neutral.FilePart:
			part, err := buildImagePart(v)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		case neutral.ToolResultPart:
			out = append(out, chatMessage{
				Role:       "tool",
				ToolCallID: v.CallID,
				Content:    renderToolResult(v.Output),
			})
		}
	}

	if len(parts) > 0 {
		out = append([]chatMessage{{Role: "user", Content: flattenIfAllText(parts)}}, out...)
	}

	return out, nil
}

func buildAssistantMessage(turn neutral.Turn) (chatMessage, error) {
	msg := chatMessage{Role: "assistant"}
	var textBuf string
	seen := map[string]bool{}

	for _, p := range turn.Parts {
		switch v := p.(type) {
		case neutral.TextPart:
			textBuf += v.Text
		case neutral.ToolCallPart:
			if seen[v.CallID] {
				continue
			}
			seen[v.CallID] = true
			args, err := marshalToolInput(v.Input)
			if err != nil {
				return chatMessage{}, err
			}
			msg.ToolCalls = append(msg.ToolCalls, toolCallWire{
				ID:       v.CallID,
				Type:     "function",
				Function: toolCallFunction{Name: v.ToolName, Arguments: args},
			})
		}
	}

	if textBuf != "" {
		msg.Content = textBuf
	}
	return msg, nil
}

func buildImagePart(f neutral.FilePart) (contentPart, error) {
	if f.URL != "" {
		return contentPart{Type: "image_url", ImageURL: &imageURLRef{URL: f.URL}}, nil
	}
	if len(f.Bytes) == 0 {
		return contentPart{}, fmt.Errorf("openaidriver: file part has neither bytes nor url")
	}
	dataURL := "data:" + f.MediaType + ";base64," + base64.StdEncoding.EncodeToString(f.Bytes)
	return contentPart{Type: "image_url", ImageURL: &imageURLRef{URL: dataURL}}, nil
}

// flattenIfAllText collapses a content-part list down to a plain string
// when it holds exactly one text part, matching the shape OpenAI expects
// for the common text-only case rather than sending a single-element array.
// Lists of two or more parts are returned as an array even if all are text.
func flattenIfAllText(parts []contentPart) any {
	if len(parts) == 1 && parts[0].Type == "text" {
		return parts[0].Text
	}
	return parts
}

func buildTools(tools []drivers.Tool) []toolWire {
	if len(tools) == 0 {
		return nil
	}
	out := make([]toolWire, 0, len(tools))
	for _, t := range tools {
		if t.BuiltinKind != "" {
			// OpenAI has no equivalent of Anthropic's server-executed
			// built-in tools; they are silently dropped rather than
			// forwarded as opaque function declarations.
			continue
		}
		out = append(out, toolWire{
			Type: "function",
			Function: functionWire{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

func marshalToolInput(input map[string]any) (string, error) {
	if input == nil {
		return "{}", nil
	}
	b, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("openaidriver: encode tool call input: %w", err)
	}
	return string(b), nil
}

// renderToolResult collapses a neutral tool_result output into the plain
// string or content-part array OpenAI's "tool" message content accepts,
// mirroring anthropicdriver's renderToolResultText for the reverse direction.
func renderToolResult(output neutral.ToolResultOutput) any {
	switch v := output.(type) {
	case neutral.TextOutput:
		return v.Text
	case neutral.ErrorTextOutput:
		return v.Text
	case neutral.JSONOutput:
		b, err := json.Marshal(v.Value)
		if err != nil {
			return fmt.Sprintf("%v", v.Value)
		}
		return string(b)
	case neutral.ErrorJSONOutput:
		b, err := json.Marshal(v.Value)
		if err != nil {
			return fmt.Sprintf("%v", v.Value)
		}
		return string(b)
	case neutral.ContentOutput:
		var parts []contentPart
		for _, item := range v.Parts {
			switch {
			case item.Text != nil:
				parts = append(parts, contentPart{Type: "text", Text: *item.Text})
			case item.Media != nil:
				if item.Media.MediaType == "application/pdf" {
					// Non-text tool_result content of media type
					// application/pdf is rendered as this literal lossy
					// placeholder; OpenAI's chat-completions API has no
					// document content part.
					parts = append(parts, contentPart{Type: "text", Text: "[document content omitted]"})
					continue
				}
				part, err := buildImagePart(*item.Media)
				if err == nil {
					parts = append(parts, part)
				}
			}
		}
		return flattenIfAllText(parts)
	default:
		return ""
	}
}
