package googledriver

import (
	"context"

	"google.golang.org/genai"

	"github.com/sudip358/claude-route/internal/neutral"
)

// pump drains genai's streaming iterator and republishes each chunk onto
// out as neutral events. Gemini streams whole function calls per chunk
// rather than incremental argument fragments the way OpenAI does, so tool
// calls are emitted via the one-shot EventToolCall variant instead of the
// start/delta/end triple openaidriver uses.
func pump(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig, out chan<- neutral.Event) {
	defer close(out)

	emit := func(ev neutral.Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	emit(neutral.Event{Kind: neutral.EventStepStart})

	textOpen := false
	reasoningOpen := false
	sawToolCall := false
	var finishReason neutral.FinishReason
	usage := neutral.Usage{}

	closeOpenBlocks := func() {
		if textOpen {
			emit(neutral.Event{Kind: neutral.EventTextEnd})
			textOpen = false
		}
		if reasoningOpen {
			emit(neutral.Event{Kind: neutral.EventReasoningEnd})
			reasoningOpen = false
		}
	}

	stream := client.Models.GenerateContentStream(ctx, model, contents, cfg)
	for resp, err := range stream {
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			closeOpenBlocks()
			emit(neutral.Event{
				Kind:          neutral.EventError,
				ErrorProvider: "google",
				ErrorMessage:  err.Error(),
			})
			return
		}
		if resp.UsageMetadata != nil {
			usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
			usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			if resp.UsageMetadata.CachedContentTokenCount > 0 {
				cached := int(resp.UsageMetadata.CachedContentTokenCount)
				usage.CachedInputTokens = &cached
			}
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		candidate := resp.Candidates[0]
		if candidate.FinishReason != "" {
			finishReason = mapFinishReason(candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				sawToolCall = true
				closeOpenBlocks()
				emit(neutral.Event{
					Kind:       neutral.EventToolCall,
					ToolCallID: firstNonEmpty(part.FunctionCall.ID, part.FunctionCall.Name),
					ToolName:   part.FunctionCall.Name,
					ToolInput:  part.FunctionCall.Args,
				})

			case part.Thought:
				if textOpen {
					emit(neutral.Event{Kind: neutral.EventTextEnd})
					textOpen = false
				}
				if !reasoningOpen {
					emit(neutral.Event{Kind: neutral.EventReasoningStart})
					reasoningOpen = true
				}
				emit(neutral.Event{Kind: neutral.EventReasoningDelta, TextDelta: part.Text})

			case part.Text != "":
				if reasoningOpen {
					emit(neutral.Event{Kind: neutral.EventReasoningEnd})
					reasoningOpen = false
				}
				if !textOpen {
					emit(neutral.Event{Kind: neutral.EventTextStart})
					textOpen = true
				}
				emit(neutral.Event{Kind: neutral.EventTextDelta, TextDelta: part.Text})
			}
		}
	}

	closeOpenBlocks()
	if sawToolCall && finishReason == neutral.FinishStop {
		finishReason = neutral.FinishToolCalls
	}
	emit(neutral.Event{Kind: neutral.EventStepFinish, FinishReason: finishReason, Usage: usage})
	emit(neutral.Event{Kind: neutral.EventFinish})
}

func mapFinishReason(r genai.FinishReason) neutral.FinishReason {
	switch r {
	case genai.FinishReasonStop:
		return neutral.FinishStop
	case genai.FinishReasonMaxTokens:
		return neutral.FinishLength
	default:
		return neutral.FinishOther
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
