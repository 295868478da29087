package anthropicdriver

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/sudip358/claude-route/internal/neutral"
)

// openBlock tracks which neutral part kind a given Anthropic content-block
// index currently holds open, so a ContentBlockStopEvent (which carries only
// an index) can be translated into the matching text-end/reasoning-end/
// tool-input-end neutral event.
type openBlock struct {
	kind neutral.EventKind // EventTextStart, EventReasoningStart, or EventToolInputStart
}

// pump drains stream, translating each Anthropic message-stream event into
// a neutral.Event and publishing it to out. It closes out when the stream
// ends, whether cleanly or on error.
func pump(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], out chan<- neutral.Event) {
	defer close(out)
	defer stream.Close()

	open := map[int64]openBlock{}

	for stream.Next() {
		event := stream.Current()

		switch variant := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			out <- neutral.Event{Kind: neutral.EventStepStart}

		case anthropic.ContentBlockStartEvent:
			emitBlockStart(out, open, variant)

		case anthropic.ContentBlockDeltaEvent:
			emitBlockDelta(out, open, variant)

		case anthropic.ContentBlockStopEvent:
			emitBlockStop(out, open, variant)

		case anthropic.MessageDeltaEvent:
			out <- neutral.Event{
				Kind:         neutral.EventStepFinish,
				FinishReason: mapStopReason(variant.Delta.StopReason),
				Usage:        mapDeltaUsage(variant.Usage),
			}

		case anthropic.MessageStopEvent:
			out <- neutral.Event{Kind: neutral.EventFinish}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}

	if err := stream.Err(); err != nil {
		out <- neutral.Event{
			Kind:           neutral.EventError,
			ErrorProvider:  "anthropic",
			ErrorMessage:   err.Error(),
			ErrorTransport: true,
		}
	}
}

func emitBlockStart(out chan<- neutral.Event, open map[int64]openBlock, ev anthropic.ContentBlockStartEvent) {
	switch block := ev.ContentBlock.AsAny().(type) {
	case anthropic.TextBlock:
		open[ev.Index] = openBlock{kind: neutral.EventTextStart}
		out <- neutral.Event{Kind: neutral.EventTextStart}

	case anthropic.ThinkingBlock:
		open[ev.Index] = openBlock{kind: neutral.EventReasoningStart}
		out <- neutral.Event{Kind: neutral.EventReasoningStart}

	case anthropic.RedactedThinkingBlock:
		open[ev.Index] = openBlock{kind: neutral.EventReasoningStart}
		out <- neutral.Event{Kind: neutral.EventReasoningStart}
		if block.Data != "" {
			out <- neutral.Event{Kind: neutral.EventReasoningDelta, TextDelta: block.Data}
		}

	case anthropic.ToolUseBlock:
		open[ev.Index] = openBlock{kind: neutral.EventToolInputStart}
		out <- neutral.Event{Kind: neutral.EventToolInputStart, ToolCallID: block.ID, ToolName: block.Name}
	}
}

func emitBlockDelta(out chan<- neutral.Event, open map[int64]openBlock, ev anthropic.ContentBlockDeltaEvent) {
	b, ok := open[ev.Index]
	if !ok {
		return
	}

	switch delta := ev.Delta.AsAny().(type) {
	case anthropic.TextDelta:
		if b.kind == neutral.EventReasoningStart {
			out <- neutral.Event{Kind: neutral.EventReasoningDelta, TextDelta: delta.Text}
		} else {
			out <- neutral.Event{Kind: neutral.EventTextDelta, TextDelta: delta.Text}
		}

	case anthropic.ThinkingDelta:
		out <- neutral.Event{Kind: neutral.EventReasoningDelta, TextDelta: delta.Thinking}

	case anthropic.InputJSONDelta:
		out <- neutral.Event{Kind: neutral.EventToolInputDelta, JSONFragment: delta.PartialJSON}

	case anthropic.SignatureDelta:
		// Thinking-block cryptographic signatures have no slot in the
		// neutral stream event union and are dropped here.
	}
}

func emitBlockStop(out chan<- neutral.Event, open map[int64]openBlock, ev anthropic.ContentBlockStopEvent) {
	b, ok := open[ev.Index]
	if !ok {
		return
	}
	delete(open, ev.Index)

	switch b.kind {
	case neutral.EventTextStart:
		out <- neutral.Event{Kind: neutral.EventTextEnd}
	case neutral.EventReasoningStart:
		out <- neutral.Event{Kind: neutral.EventReasoningEnd}
	case neutral.EventToolInputStart:
		out <- neutral.Event{Kind: neutral.EventToolInputEnd}
	}
}

func mapStopReason(r anthropic.StopReason) neutral.FinishReason {
	switch r {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return neutral.FinishStop
	case anthropic.StopReasonMaxTokens:
		return neutral.FinishLength
	case anthropic.StopReasonToolUse:
		return neutral.FinishToolCalls
	default:
		return neutral.FinishOther
	}
}

func mapDeltaUsage(u anthropic.MessageDeltaUsage) neutral.Usage {
	usage := neutral.Usage{OutputTokens: int(u.OutputTokens)}
	if u.InputTokens > 0 {
		usage.InputTokens = int(u.InputTokens)
	}
	if u.CacheReadInputTokens > 0 {
		cached := int(u.CacheReadInputTokens)
		usage.CachedInputTokens = &cached
	}
	return usage
}
