package app

import (
	"github.com/sudip358/claude-route/internal/config"
	"github.com/sudip358/claude-route/internal/drivers"
)

// toDriverHints adapts the config-layer OpenAI hints into the shape
// drivers.Request carries; the two are kept as separate types so
// internal/config never has to import internal/drivers for validation
// tags alone.
func toDriverHints(h config.OpenAIHints) drivers.OpenAIHints {
	return drivers.OpenAIHints{
		ReasoningEffort:      h.ReasoningEffort,
		ReasoningSummaryAuto: h.ReasoningEffort != "",
		ServiceTier:          h.ServiceTier,
	}
}
