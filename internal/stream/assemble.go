package stream

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sudip358/claude-route/internal/errormap"
	"github.com/sudip358/claude-route/internal/neutral"
)

// ClassifiedError wraps an errormap.Classification so a caller that needs
// the HTTP status alongside the Anthropic-shaped body (the non-streaming
// response path) can recover it with errors.As, instead of re-deriving the
// classification from a plain error string.
type ClassifiedError struct {
	Classification errormap.Classification
}

func (e *ClassifiedError) Error() string {
	return string(e.Classification.Kind) + ": " + e.Classification.Message
}

// Assembled is the result of draining a driver's event stream into a
// single assistant turn, for the non-streaming response path.
type Assembled struct {
	Turn         neutral.Turn
	FinishReason neutral.FinishReason
	Usage        neutral.Usage
}

// Assemble drains events to completion, accumulating deltas into whole
// parts rather than emitting SSE. Unlike WriteStream, a driver error here
// is always pre-response: nothing has been written to the caller's HTTP
// response yet, so the returned *ClassifiedError carries a real HTTP
// status the proxy can still use.
func Assemble(ctx context.Context, events <-chan neutral.Event) (Assembled, error) {
	var (
		out        Assembled
		parts      []neutral.Part
		textBuf    strings.Builder
		reasonBuf  strings.Builder
		toolID     string
		toolName   string
		toolBuf    strings.Builder
	)
	out.Turn.Role = neutral.RoleAssistant

	for {
		select {
		case <-ctx.Done():
			out.Turn.Parts = parts
			return out, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				out.Turn.Parts = parts
				return out, nil
			}

			switch ev.Kind {
			case neutral.EventTextStart:
				textBuf.Reset()
			case neutral.EventTextDelta:
				textBuf.WriteString(ev.TextDelta)
			case neutral.EventTextEnd:
				parts = append(parts, neutral.TextPart{Text: textBuf.String()})

			case neutral.EventReasoningStart:
				reasonBuf.Reset()
			case neutral.EventReasoningDelta:
				reasonBuf.WriteString(ev.TextDelta)
			case neutral.EventReasoningEnd:
				parts = append(parts, neutral.ReasoningPart{Text: reasonBuf.String()})

			case neutral.EventToolInputStart:
				toolID, toolName = ev.ToolCallID, ev.ToolName
				toolBuf.Reset()
			case neutral.EventToolInputDelta:
				toolBuf.WriteString(ev.JSONFragment)
			case neutral.EventToolInputEnd:
				var input map[string]any
				if toolBuf.Len() > 0 {
					_ = json.Unmarshal([]byte(toolBuf.String()), &input)
				}
				parts = append(parts, neutral.ToolCallPart{CallID: toolID, ToolName: toolName, Input: input})

			case neutral.EventToolCall:
				parts = append(parts, neutral.ToolCallPart{CallID: ev.ToolCallID, ToolName: ev.ToolName, Input: ev.ToolInput})

			case neutral.EventStepFinish:
				out.FinishReason = ev.FinishReason
				out.Usage = ev.Usage

			case neutral.EventFinish:
				out.Turn.Parts = parts
				return out, nil

			case neutral.EventError:
				classification := errormap.Classify(errormap.DriverError{
					Provider:  ev.ErrorProvider,
					Code:      ev.ErrorCode,
					Type:      ev.ErrorType,
					Message:   ev.ErrorMessage,
					Phase:     errormap.PhasePreStream,
					Transport: ev.ErrorTransport,
				})
				return out, &ClassifiedError{Classification: classification}
			}
		}
	}
}
