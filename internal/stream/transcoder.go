package stream

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sudip358/claude-route/internal/anthropicwire"
	"github.com/sudip358/claude-route/internal/errormap"
	"github.com/sudip358/claude-route/internal/neutral"
)

// Transcoder owns the block-index counter and open-block bookkeeping for
// exactly one response: it must not be reused across requests, and a
// fresh one is constructed per call to WriteStream.
type Transcoder struct {
	sse        *sseWriter
	model      string
	blockIndex int
	open       neutral.EventKind // zero value ("") means no block currently open
}

// WriteStream drives events to completion, writing Anthropic SSE to w as
// each event arrives. It returns once a finish or error event has been
// transcoded, or ctx is canceled (in which case a best-effort
// overloaded_error event is flushed before returning).
func WriteStream(ctx context.Context, w http.ResponseWriter, model string, events <-chan neutral.Event) error {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sse, err := newSSEWriter(w)
	if err != nil {
		return err
	}

	t := &Transcoder{sse: sse, model: model}
	for {
		select {
		case <-ctx.Done():
			t.emitClientAbort()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := t.handle(ev); err != nil {
				return err
			}
			if ev.Kind == neutral.EventFinish || ev.Kind == neutral.EventError {
				return nil
			}
		}
	}
}

func (t *Transcoder) emitClientAbort() {
	_ = t.sse.writeEvent("error", errorEventData{
		Type: "error",
		Error: errorEventDataError{
			Type:    string(errormap.KindOverloaded),
			Message: "client disconnected mid-stream",
		},
	})
}

func (t *Transcoder) handle(ev neutral.Event) error {
	switch ev.Kind {
	case neutral.EventStepStart:
		return t.sse.writeEvent("message_start", messageStartData{
			Type: "message_start",
			Message: messageEnvelope{
				ID:      "msg_" + uuid.NewString(),
				Type:    "message",
				Role:    "assistant",
				Content: []any{},
				Model:   t.model,
				Usage:   anthropicwire.Usage{},
			},
		})

	case neutral.EventTextStart:
		t.open = neutral.EventTextStart
		text := ""
		return t.sse.writeEvent("content_block_start", contentBlockStartData{
			Type:         "content_block_start",
			Index:        t.blockIndex,
			ContentBlock: contentBlock{Type: "text", Text: &text},
		})

	case neutral.EventTextDelta:
		return t.sse.writeEvent("content_block_delta", contentBlockDeltaData{
			Type:  "content_block_delta",
			Index: t.blockIndex,
			Delta: delta{Type: "text_delta", Text: ev.TextDelta},
		})

	case neutral.EventTextEnd:
		return t.stopBlock()

	case neutral.EventReasoningStart:
		t.open = neutral.EventReasoningStart
		thinking := ""
		return t.sse.writeEvent("content_block_start", contentBlockStartData{
			Type:         "content_block_start",
			Index:        t.blockIndex,
			ContentBlock: contentBlock{Type: "thinking", Thinking: &thinking},
		})

	case neutral.EventReasoningDelta:
		return t.sse.writeEvent("content_block_delta", contentBlockDeltaData{
			Type:  "content_block_delta",
			Index: t.blockIndex,
			Delta: delta{Type: "text_delta", Text: ev.TextDelta},
		})

	case neutral.EventReasoningEnd:
		return t.stopBlock()

	case neutral.EventToolInputStart:
		t.open = neutral.EventToolInputStart
		return t.sse.writeEvent("content_block_start", contentBlockStartData{
			Type:  "content_block_start",
			Index: t.blockIndex,
			ContentBlock: contentBlock{
				Type:  "tool_use",
				ID:    ev.ToolCallID,
				Name:  ev.ToolName,
				Input: map[string]any{},
			},
		})

	case neutral.EventToolInputDelta:
		return t.sse.writeEvent("content_block_delta", contentBlockDeltaData{
			Type:  "content_block_delta",
			Index: t.blockIndex,
			Delta: delta{Type: "input_json_delta", PartialJSON: ev.JSONFragment},
		})

	case neutral.EventToolInputEnd:
		return t.stopBlock()

	case neutral.EventToolCall:
		if err := t.sse.writeEvent("content_block_start", contentBlockStartData{
			Type:  "content_block_start",
			Index: t.blockIndex,
			ContentBlock: contentBlock{
				Type:  "tool_use",
				ID:    ev.ToolCallID,
				Name:  ev.ToolName,
				Input: ev.ToolInput,
			},
		}); err != nil {
			return err
		}
		t.open = neutral.EventToolInputStart
		return t.stopBlock()

	case neutral.EventStepFinish:
		stopSeq := (*string)(nil)
		return t.sse.writeEvent("message_delta", messageDeltaData{
			Type: "message_delta",
			Delta: messageDeltaDelta{
				StopReason:   stopReasonWire(ev.FinishReason),
				StopSequence: stopSeq,
			},
			Usage: usageWire(ev.Usage),
		})

	case neutral.EventFinish:
		return t.sse.writeEvent("message_stop", messageStopData{Type: "message_stop"})

	case neutral.EventError:
		classification := errormap.Classify(errormap.DriverError{
			Provider:  ev.ErrorProvider,
			Code:      ev.ErrorCode,
			Type:      ev.ErrorType,
			Message:   ev.ErrorMessage,
			Phase:     errormap.PhasePostHeaders,
			Transport: ev.ErrorTransport,
		})
		return t.sse.writeEvent("error", errorEventData{
			Type:  "error",
			Error: errorEventDataError{Type: string(classification.Kind), Message: classification.Message},
		})
	}
	return nil
}

func (t *Transcoder) stopBlock() error {
	if t.open == "" {
		return nil
	}
	err := t.sse.writeEvent("content_block_stop", contentBlockStopData{Type: "content_block_stop", Index: t.blockIndex})
	t.blockIndex++
	t.open = ""
	return err
}

// stopReasonWire maps the neutral finish-reason vocabulary to Anthropic's
// wire stop_reason strings.
func stopReasonWire(r neutral.FinishReason) string {
	switch r {
	case neutral.FinishStop:
		return "end_turn"
	case neutral.FinishToolCalls:
		return "tool_use"
	case neutral.FinishLength:
		return "max_tokens"
	default:
		return "unknown"
	}
}

// usageWire renders a neutral.Usage into the wire shape, always reporting
// cache_creation_input_tokens as 0 since no backend other than Anthropic
// reports creation, and cache_read_input_tokens as 0 when the driver
// didn't report a cached-token count at all.
func usageWire(u neutral.Usage) anthropicwire.Usage {
	cacheRead := 0
	if u.CachedInputTokens != nil {
		cacheRead = *u.CachedInputTokens
	}
	return anthropicwire.Usage{
		InputTokens:              u.InputTokens,
		OutputTokens:             u.OutputTokens,
		CacheCreationInputTokens: 0,
		CacheReadInputTokens:     cacheRead,
	}
}
