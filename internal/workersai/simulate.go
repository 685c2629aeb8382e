package workersai

import (
	"context"

	"github.com/google/uuid"

	"relay/internal/llm"
)

// simulatedStream replays a single blocking call as a synthetic event
// sequence that satisfies the same framing contract as real streaming. It is
// used for tool-enabled turns, where tool-call resolution needs the complete
// structured result before any partial output is meaningful.
//
// The blocking call happens lazily on the first pull, so a stream that is
// closed before being read does no work.
type simulatedStream struct {
	ctx      context.Context
	provider *Provider
	opts     llm.CallOptions

	queue []llm.Event
	cur   llm.Event
	err   error

	ran    bool
	closed bool
}

func newSimulatedStream(ctx context.Context, provider *Provider, opts llm.CallOptions) *simulatedStream {
	return &simulatedStream{ctx: ctx, provider: provider, opts: opts}
}

func (s *simulatedStream) Next() bool {
	if s.closed {
		return false
	}
	if !s.ran {
		s.ran = true
		result, err := s.provider.Generate(s.ctx, s.opts)
		if err != nil {
			s.err = err
			return false
		}
		s.queue = replayEvents(result)
	}
	if len(s.queue) == 0 {
		return false
	}
	s.cur = s.queue[0]
	s.queue = s.queue[1:]
	return true
}

// replayEvents frames a complete result as a one-shot event sequence: a text
// block opens on the first text part and a reasoning block on the first
// reasoning part, every part becomes its delta or passthrough event, and
// reasoning closes before text, exactly as in the live aggregator.
func replayEvents(result *llm.Result) []llm.Event {
	events := []llm.Event{{
		Type:     llm.EventStreamStart,
		Warnings: result.Warnings,
	}}

	var textID, reasoningID string
	for _, part := range result.Content {
		switch part.Type {
		case llm.PartTypeText:
			if textID == "" {
				textID = uuid.NewString()
				events = append(events, llm.Event{Type: llm.EventTextStart, ID: textID})
			}
			events = append(events, llm.Event{Type: llm.EventTextDelta, ID: textID, Text: part.Text})
		case llm.PartTypeReasoning:
			if reasoningID == "" {
				reasoningID = uuid.NewString()
				events = append(events, llm.Event{Type: llm.EventReasoningStart, ID: reasoningID})
			}
			events = append(events, llm.Event{Type: llm.EventReasoningDelta, ID: reasoningID, Text: part.Text})
		case llm.PartTypeToolCall:
			// Already complete; passed straight through.
			events = append(events, llm.Event{Type: llm.EventToolCall, ToolCall: part.ToolCall})
		}
	}

	if reasoningID != "" {
		events = append(events, llm.Event{Type: llm.EventReasoningEnd, ID: reasoningID})
	}
	if textID != "" {
		events = append(events, llm.Event{Type: llm.EventTextEnd, ID: textID})
	}

	usage := result.Usage
	events = append(events, llm.Event{
		Type:         llm.EventFinish,
		FinishReason: result.FinishReason,
		Usage:        &usage,
	})
	return events
}

func (s *simulatedStream) Current() llm.Event { return s.cur }

func (s *simulatedStream) Err() error { return s.err }

func (s *simulatedStream) Close() error {
	s.closed = true
	return nil
}
