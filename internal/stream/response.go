package stream

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/sudip358/claude-route/internal/anthropicwire"
	"github.com/sudip358/claude-route/internal/neutral"
)

// RenderBuffered turns an Assembled turn into the JSON body of a
// non-streaming /v1/messages response, routing the turn through
// anthropicwire.FromNeutral the same way the streaming path renders each
// block, just without the SSE framing.
func RenderBuffered(assembled Assembled, model string, sendReasoning bool) (*anthropicwire.MessageResponse, error) {
	result, err := anthropicwire.FromNeutral(assembled.Turn, anthropicwire.RenderOptions{
		SendReasoning:         sendReasoning,
		IsFinalAssistantBlock: true,
	})
	if err != nil {
		return nil, err
	}

	var content []anthropicwire.ContentBlock
	if len(result.Message.Content) > 0 {
		if err := json.Unmarshal(result.Message.Content, &content); err != nil {
			return nil, neutral.WrapError(neutral.KindProtocolInvariant, "decode rendered content blocks", err)
		}
	}

	return &anthropicwire.MessageResponse{
		ID:           "msg_" + uuid.NewString(),
		Type:         "message",
		Role:         "assistant",
		Content:      content,
		Model:        model,
		StopReason:   stopReasonWire(assembled.FinishReason),
		StopSequence: nil,
		Usage:        usageWire(assembled.Usage),
	}, nil
}
