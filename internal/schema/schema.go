// Package schema rewrites a tool's JSON Schema draft-7 input_schema into the
// shape a given backend provider's function-calling validator expects.
//
// Schema conversion is treated as a small, pure, recursive tree rewrite,
// generalized from Anthropic-shaped to draft-7-shaped nodes since this
// adapter's tools always carry a JSON Schema rather than Anthropic's own
// block types.
package schema

// Provider identifies the backend whose function-calling validator a schema
// is being adapted for.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderXAI       Provider = "xai"
	ProviderAzure     Provider = "azure"
	ProviderAnthropic Provider = "anthropic"
)

// Adapt rewrites schema for provider, recursively and idempotently. schema
// is not mutated; Adapt returns a new tree. Adapt is pure: it reads nothing
// but its arguments and writes nothing but its return value.
func Adapt(provider Provider, node map[string]any) map[string]any {
	return adaptNode(provider, node)
}

func adaptNode(provider Provider, node map[string]any) map[string]any {
	if node == nil {
		return nil
	}

	out := make(map[string]any, len(node))
	for k, v := range node {
		out[k] = v
	}

	stripURIFormat(provider, out)

	switch nodeType, _ := out["type"].(string); nodeType {
	case "object":
		adaptObjectNode(provider, out)
	case "array":
		adaptArrayNode(provider, out)
	}

	return out
}

// adaptObjectNode applies rule 2 (openai closed-object / required
// preservation) and recurses into properties.*.
func adaptObjectNode(provider Provider, out map[string]any) {
	if props, ok := out["properties"].(map[string]any); ok {
		adapted := make(map[string]any, len(props))
		for name, propNode := range props {
			if propMap, ok := propNode.(map[string]any); ok {
				adapted[name] = adaptNode(provider, propMap)
			} else {
				adapted[name] = propNode
			}
		}
		out["properties"] = adapted
	}

	if provider == ProviderOpenAI {
		// required is preserved as-is if present; never synthesized
		// (OpenAI rejects required fields that are actually optional in
		// the semantic schema).
		if _, hasAdditional := out["additionalProperties"]; !hasAdditional {
			out["additionalProperties"] = false
		}
	}
}

// adaptArrayNode recurses into items when it is a single object schema.
func adaptArrayNode(provider Provider, out map[string]any) {
	items, ok := out["items"].(map[string]any)
	if !ok {
		return
	}
	out["items"] = adaptNode(provider, items)
}

// stripURIFormat removes format:"uri" for providers whose validators reject
// unknown/strict URI formats inconsistently (rule 1).
func stripURIFormat(provider Provider, out map[string]any) {
	if provider != ProviderOpenAI && provider != ProviderGoogle {
		return
	}
	if format, ok := out["format"].(string); ok && format == "uri" {
		delete(out, "format")
	}
}
