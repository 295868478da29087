package googledriver

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

// buildRequest translates a neutral prompt into genai's Content list plus
// a GenerateContentConfig carrying system instruction, sampling knobs, and
// tool declarations. Google takes no hints beyond API key + base URL, so
// drivers.Request.Hints is not consulted here.
func buildRequest(req drivers.Request) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	cfg := &genai.GenerateContentConfig{}

	if req.Prompt.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: req.Prompt.System}},
		}
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}

	tools, err := buildTools(req.Tools)
	if err != nil {
		return nil, nil, err
	}
	if len(tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: tools}}
	}

	contents, err := buildContents(req.Prompt.Turns)
	if err != nil {
		return nil, nil, err
	}

	return contents, cfg, nil
}

func buildContents(turns []neutral.Turn) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(turns))

	for _, turn := range turns {
		role := genai.RoleUser
		if turn.Role == neutral.RoleAssistant {
			role = genai.RoleModel
		}

		parts, err := buildParts(turn.Parts)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return contents, nil
}

func buildParts(neutralParts []neutral.Part) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(neutralParts))
	seenCallIDs := map[string]struct{}{}

	for _, p := range neutralParts {
		switch part := p.(type) {
		case neutral.TextPart:
			if part.Text == "" {
				continue
			}
			parts = append(parts, &genai.Part{Text: part.Text})

		case neutral.ReasoningPart:
			parts = append(parts, &genai.Part{Text: part.Text, Thought: true})

		case neutral.FilePart:
			if len(part.Bytes) == 0 {
				return nil, neutral.NewError(neutral.KindUnsupportedMediaType, "googledriver: file parts by URL are not supported; fetch and inline first")
			}
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: part.Bytes, MIMEType: part.MediaType}})

		case neutral.ToolCallPart:
			if _, dup := seenCallIDs[part.CallID]; dup {
				continue
			}
			seenCallIDs[part.CallID] = struct{}{}
			parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
				ID:   part.CallID,
				Name: part.ToolName,
				Args: part.Input,
			}})

		case neutral.ToolResultPart:
			response, err := toolResultToResponse(part.Output)
			if err != nil {
				return nil, err
			}
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       part.CallID,
				Name:     part.CallID,
				Response: response,
			}})
		}
	}

	return parts, nil
}

// toolResultToResponse flattens a neutral.ToolResultOutput into the
// map[string]any shape genai.FunctionResponse.Response expects, since
// Gemini's function-response part has no free-form string/content variant
// the way Anthropic and OpenAI do.
func toolResultToResponse(o neutral.ToolResultOutput) (map[string]any, error) {
	switch out := o.(type) {
	case neutral.TextOutput:
		return map[string]any{"result": out.Text}, nil
	case neutral.JSONOutput:
		return map[string]any{"result": out.Value}, nil
	case neutral.ErrorTextOutput:
		return map[string]any{"error": out.Text}, nil
	case neutral.ErrorJSONOutput:
		return map[string]any{"error": out.Value}, nil
	case neutral.ContentOutput:
		text := ""
		for _, item := range out.Parts {
			if item.Text != nil {
				text += *item.Text
			} else if item.Media != nil {
				text += "[document content omitted]"
			}
		}
		return map[string]any{"result": text}, nil
	default:
		return nil, fmt.Errorf("googledriver: unknown tool result output kind")
	}
}

func buildTools(tools []drivers.Tool) ([]*genai.FunctionDeclaration, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		if t.BuiltinKind != "" {
			// Gemini has no equivalent to Anthropic's server-executed
			// computer/text-editor/bash tools; silently dropped, matching
			// this driver's tool declarations being best-effort only.
			continue
		}
		schema, err := toGenaiSchema(t.InputSchema)
		if err != nil {
			return nil, err
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		})
	}
	return decls, nil
}

// toGenaiSchema converts the subset of draft-7 JSON Schema internal/schema
// produces (object/array/string/number/integer/boolean nodes with
// properties/items/required/enum/description/format) into genai's typed
// Schema struct, since the genai SDK does not accept a raw JSON Schema map.
func toGenaiSchema(node map[string]any) (*genai.Schema, error) {
	if node == nil {
		return &genai.Schema{Type: genai.TypeObject}, nil
	}

	s := &genai.Schema{}
	if desc, ok := node["description"].(string); ok {
		s.Description = desc
	}
	if format, ok := node["format"].(string); ok {
		s.Format = format
	}
	if enumVals, ok := node["enum"].([]any); ok {
		for _, v := range enumVals {
			if str, ok := v.(string); ok {
				s.Enum = append(s.Enum, str)
			}
		}
	}

	typeStr, _ := node["type"].(string)
	switch typeStr {
	case "object":
		s.Type = genai.TypeObject
		if props, ok := node["properties"].(map[string]any); ok {
			s.Properties = make(map[string]*genai.Schema, len(props))
			for name, propNode := range props {
				propMap, ok := propNode.(map[string]any)
				if !ok {
					continue
				}
				propSchema, err := toGenaiSchema(propMap)
				if err != nil {
					return nil, err
				}
				s.Properties[name] = propSchema
			}
		}
		if required, ok := node["required"].([]any); ok {
			for _, r := range required {
				if str, ok := r.(string); ok {
					s.Required = append(s.Required, str)
				}
			}
		}
	case "array":
		s.Type = genai.TypeArray
		if items, ok := node["items"].(map[string]any); ok {
			itemSchema, err := toGenaiSchema(items)
			if err != nil {
				return nil, err
			}
			s.Items = itemSchema
		}
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}

	return s, nil
}
