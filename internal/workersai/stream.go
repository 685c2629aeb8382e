package workersai

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"relay/internal/llm"
)

const streamEndSentinel = "[DONE]"

// chatStream re-frames the backend's line-delimited chunk stream into the
// canonical event sequence. It is a synchronous pull iterator: each Next call
// reads at most as far as the next emittable event, so the consumer's pull
// rate bounds reads from the underlying body, and Close releases the body
// immediately.
//
// All per-stream state lives here and is never shared across streams.
type chatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	queue []llm.Event
	cur   llm.Event
	err   error

	textID      string
	reasoningID string
	usage       llm.Usage
	fragments   []PartialToolCall

	finished bool
	closed   bool
}

func newChatStream(body io.ReadCloser, warnings []llm.Warning) *chatStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &chatStream{
		body:    body,
		scanner: scanner,
		queue: []llm.Event{{
			Type:     llm.EventStreamStart,
			Warnings: warnings,
		}},
	}
}

func (s *chatStream) Next() bool {
	for {
		if len(s.queue) > 0 {
			s.cur = s.queue[0]
			s.queue = s.queue[1:]
			return true
		}
		if s.finished || s.closed {
			return false
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				// Abnormal end: no finish event is synthesized, the error
				// surfaces through Err instead.
				s.err = err
				s.finished = true
				continue
			}
			s.finalize()
			continue
		}

		payload := strings.TrimSpace(s.scanner.Text())
		payload = strings.TrimSpace(strings.TrimPrefix(payload, "data:"))
		if payload == "" {
			continue
		}
		if payload == streamEndSentinel {
			s.finalize()
			continue
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Debug("skipping unparseable stream chunk", "error", err)
			continue
		}
		s.ingest(chunk)
	}
}

// ingest appends the events derived from one chunk. The four signal paths are
// processed in a fixed order per chunk: usage, tool-call fragments, top-level
// response text, then the nested delta fields.
func (s *chatStream) ingest(chunk StreamChunk) {
	if chunk.Usage != nil {
		// Last write wins; usage snapshots are not accumulated.
		s.usage = normalizeUsage(*chunk.Usage)
	}

	if len(chunk.ToolCalls) > 0 {
		s.fragments = append(s.fragments, chunk.ToolCalls...)
	}

	if chunk.Response != "" {
		s.appendTextDelta(chunk.Response)
	}

	if len(chunk.Choices) > 0 {
		delta := chunk.Choices[0].Delta
		if delta.ReasoningContent != "" {
			if s.reasoningID == "" {
				s.reasoningID = uuid.NewString()
				s.queue = append(s.queue, llm.Event{Type: llm.EventReasoningStart, ID: s.reasoningID})
			}
			s.queue = append(s.queue, llm.Event{
				Type: llm.EventReasoningDelta,
				ID:   s.reasoningID,
				Text: delta.ReasoningContent,
			})
		}
		// delta.content and the top-level response field multiplex onto the
		// same logical text block.
		if delta.Content != "" {
			s.appendTextDelta(delta.Content)
		}
	}
}

func (s *chatStream) appendTextDelta(text string) {
	if s.textID == "" {
		s.textID = uuid.NewString()
		s.queue = append(s.queue, llm.Event{Type: llm.EventTextStart, ID: s.textID})
	}
	s.queue = append(s.queue, llm.Event{
		Type: llm.EventTextDelta,
		ID:   s.textID,
		Text: text,
	})
}

// finalize reconciles accumulated tool-call fragments, closes open blocks
// (reasoning before text), and emits the single terminal finish event.
func (s *chatStream) finalize() {
	if s.finished {
		return
	}
	s.finished = true

	s.queue = append(s.queue, reconcileFragments(s.fragments)...)

	if s.reasoningID != "" {
		s.queue = append(s.queue, llm.Event{Type: llm.EventReasoningEnd, ID: s.reasoningID})
	}
	if s.textID != "" {
		s.queue = append(s.queue, llm.Event{Type: llm.EventTextEnd, ID: s.textID})
	}

	usage := s.usage
	s.queue = append(s.queue, llm.Event{
		Type:         llm.EventFinish,
		FinishReason: llm.FinishStop,
		Usage:        &usage,
	})
}

// reconcileFragments merges fragments by index: every fragment sharing an
// index contributes its name and arguments pieces by concatenation, in
// arrival order. A merged call is emitted only when its name is non-empty and
// its arguments parse as JSON; anything else is dropped so malformed partial
// data never kills the stream.
func reconcileFragments(fragments []PartialToolCall) []llm.Event {
	type merged struct {
		id   string
		name strings.Builder
		args strings.Builder
	}

	byIndex := make(map[int]*merged)
	var indexes []int
	for _, frag := range fragments {
		m, ok := byIndex[frag.Index]
		if !ok {
			m = &merged{}
			byIndex[frag.Index] = m
			indexes = append(indexes, frag.Index)
		}
		if m.id == "" && frag.ID != "" {
			m.id = frag.ID
		}
		m.name.WriteString(frag.FunctionName())
		m.args.WriteString(frag.FunctionArguments())
	}
	sort.Ints(indexes)

	var events []llm.Event
	for _, idx := range indexes {
		m := byIndex[idx]
		name := m.name.String()
		args := m.args.String()
		if name == "" || !json.Valid([]byte(args)) {
			slog.Debug("dropping incomplete tool call fragment", "index", idx, "name", name)
			continue
		}
		id := m.id
		if id == "" {
			id = uuid.NewString()
		}
		events = append(events, llm.Event{
			Type: llm.EventToolCall,
			ToolCall: &llm.ToolCallPart{
				ID:    id,
				Name:  name,
				Input: json.RawMessage(args),
			},
		})
	}
	return events
}

func (s *chatStream) Current() llm.Event { return s.cur }

func (s *chatStream) Err() error { return s.err }

func (s *chatStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
