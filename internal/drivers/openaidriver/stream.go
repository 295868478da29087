package openaidriver

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/sudip358/claude-route/internal/drivers"
	"github.com/sudip358/claude-route/internal/neutral"
)

// chatCompletionChunk is the subset of an OpenAI streaming chat-completions
// chunk this driver reads. Fields not needed for translation (system
// fingerprint, logprobs, ...) are left unparsed.
type chatCompletionChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Content   string           `json:"content"`
			ToolCalls []toolCallDelta  `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *usageWire `json:"usage"`
}

type toolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type usageWire struct {
	PromptTokens        int `json:"prompt_tokens"`
	CompletionTokens    int `json:"completion_tokens"`
	PromptTokensDetails *struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details"`
}

// openToolCall tracks one in-progress tool call's accumulated state, keyed
// by its chunk index, since OpenAI streams tool-call id/name once on the
// first chunk for that index and arguments incrementally afterward
// (mihaisavezi-claude-code-open's ContentBlockState/findOrCreateContentBlock
// pattern, generalized to this driver's own per-call bookkeeping rather
// than a shared transcoder block-index map).
type openToolCall struct {
	id      string
	name    string
	started bool
}

// pump reads body as a text/event-stream response and republishes each
// chunk onto out as neutral events, closing out when the stream ends, a
// [DONE] sentinel is read, or a malformed line is encountered.
func pump(ctx context.Context, kind drivers.Kind, body io.ReadCloser, out chan<- neutral.Event) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	textOpen := false
	toolCalls := map[int]*openToolCall{}
	var finishReason neutral.FinishReason
	usage := neutral.Usage{}

	emit := func(ev neutral.Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	emit(neutral.Event{Kind: neutral.EventStepStart})

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			emit(neutral.Event{
				Kind:          neutral.EventError,
				ErrorProvider: string(kind),
				ErrorMessage:  "malformed stream chunk: " + err.Error(),
			})
			return
		}

		if chunk.Usage != nil {
			usage.InputTokens = chunk.Usage.PromptTokens
			usage.OutputTokens = chunk.Usage.CompletionTokens
			if chunk.Usage.PromptTokensDetails != nil {
				cached := chunk.Usage.PromptTokensDetails.CachedTokens
				usage.CachedInputTokens = &cached
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			if !textOpen {
				emit(neutral.Event{Kind: neutral.EventTextStart})
				textOpen = true
			}
			emit(neutral.Event{Kind: neutral.EventTextDelta, TextDelta: choice.Delta.Content})
		}

		for i := range choice.Delta.ToolCalls {
			if !handleToolCallDelta(choice.Delta.ToolCalls[i], toolCalls, emit) {
				return
			}
		}

		if choice.FinishReason != nil {
			finishReason = mapFinishReason(*choice.FinishReason)
		}
	}

	if err := scanner.Err(); err != nil {
		emit(neutral.Event{
			Kind:           neutral.EventError,
			ErrorProvider:  string(kind),
			ErrorMessage:   err.Error(),
			ErrorTransport: true,
		})
		return
	}

	if textOpen {
		emit(neutral.Event{Kind: neutral.EventTextEnd})
	}
	for _, idx := range orderedKeys(toolCalls) {
		if toolCalls[idx].started {
			emit(neutral.Event{Kind: neutral.EventToolInputEnd})
		}
	}

	emit(neutral.Event{Kind: neutral.EventStepFinish, FinishReason: finishReason, Usage: usage})
	emit(neutral.Event{Kind: neutral.EventFinish})
}

// handleToolCallDelta accumulates one tool-call delta fragment, emitting a
// tool-input-start the first time a given index is seen with a non-empty id
// (OpenAI sends id+name on the first chunk for that call, and arguments
// incrementally on every subsequent chunk for the same index) and
// tool-input-delta for every arguments fragment after that.
func handleToolCallDelta(d toolCallDelta, open map[int]*openToolCall, emit func(neutral.Event) bool) bool {
	call, exists := open[d.Index]
	if !exists {
		call = &openToolCall{}
		open[d.Index] = call
	}
	if d.ID != "" {
		call.id = d.ID
	}
	if d.Function.Name != "" {
		call.name = d.Function.Name
	}

	if !call.started && call.id != "" && call.name != "" {
		call.started = true
		if !emit(neutral.Event{Kind: neutral.EventToolInputStart, ToolCallID: call.id, ToolName: call.name}) {
			return false
		}
	}

	if d.Function.Arguments != "" && call.started {
		if !emit(neutral.Event{Kind: neutral.EventToolInputDelta, JSONFragment: d.Function.Arguments}) {
			return false
		}
	}

	return true
}

// orderedKeys returns a map's int keys in ascending order, so tool-input-end
// events are emitted in the same order the calls were opened rather than in
// Go's randomized map-iteration order.
func orderedKeys(m map[int]*openToolCall) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func mapFinishReason(reason string) neutral.FinishReason {
	switch reason {
	case "stop":
		return neutral.FinishStop
	case "length":
		return neutral.FinishLength
	case "tool_calls", "function_call":
		return neutral.FinishToolCalls
	default:
		return neutral.FinishOther
	}
}
