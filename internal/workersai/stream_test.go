package workersai

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/llm"
)

func collectEvents(t *testing.T, s llm.Stream) []llm.Event {
	t.Helper()
	var events []llm.Event
	for s.Next() {
		events = append(events, s.Current())
	}
	require.NoError(t, s.Err())
	require.NoError(t, s.Close())
	return events
}

func streamFromLines(lines ...string) *chatStream {
	body := io.NopCloser(strings.NewReader(strings.Join(lines, "\n")))
	return newChatStream(body, nil)
}

// assertFraming checks the canonical framing contract: deltas only inside an
// open block of the same id, exactly one finish, finish last.
func assertFraming(t *testing.T, events []llm.Event) {
	t.Helper()

	open := map[string]llm.EventType{}
	finishCount := 0
	for i, ev := range events {
		switch ev.Type {
		case llm.EventTextStart, llm.EventReasoningStart:
			_, exists := open[ev.ID]
			assert.False(t, exists, "block %s opened twice", ev.ID)
			open[ev.ID] = ev.Type
		case llm.EventTextDelta:
			assert.Equal(t, llm.EventTextStart, open[ev.ID], "text delta outside open block")
		case llm.EventReasoningDelta:
			assert.Equal(t, llm.EventReasoningStart, open[ev.ID], "reasoning delta outside open block")
		case llm.EventTextEnd, llm.EventReasoningEnd:
			_, exists := open[ev.ID]
			assert.True(t, exists, "end for unopened block %s", ev.ID)
			delete(open, ev.ID)
		case llm.EventFinish:
			finishCount++
			assert.Equal(t, len(events)-1, i, "finish must be the terminal event")
		}
	}
	assert.Equal(t, 1, finishCount)
	assert.Empty(t, open, "all blocks must be closed before stream end")
}

func TestChatStream_TextDeltasAndFraming(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: {"response":"Hel"}`,
		``,
		`data: {"response":"lo"}`,
		`data: [DONE]`,
	))
	assertFraming(t, events)

	types := eventTypes(events)
	assert.Equal(t, []llm.EventType{
		llm.EventStreamStart,
		llm.EventTextStart,
		llm.EventTextDelta,
		llm.EventTextDelta,
		llm.EventTextEnd,
		llm.EventFinish,
	}, types)

	assert.Equal(t, "Hel", events[2].Text)
	assert.Equal(t, "lo", events[3].Text)
	assert.Equal(t, events[1].ID, events[3].ID)
}

func TestChatStream_DeltaContentSharesTextBlock(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: {"response":"a"}`,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		`data: [DONE]`,
	))
	assertFraming(t, events)

	var ids []string
	for _, ev := range events {
		if ev.Type == llm.EventTextDelta {
			ids = append(ids, ev.ID)
		}
	}
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1], "response and delta.content multiplex onto one text block")
}

func TestChatStream_ReasoningClosesBeforeText(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: {"choices":[{"delta":{"reasoning_content":"hmm"}}]}`,
		`data: {"choices":[{"delta":{"content":"answer"}}]}`,
		`data: [DONE]`,
	))
	assertFraming(t, events)

	var closeOrder []llm.EventType
	for _, ev := range events {
		if ev.Type == llm.EventReasoningEnd || ev.Type == llm.EventTextEnd {
			closeOrder = append(closeOrder, ev.Type)
		}
	}
	assert.Equal(t, []llm.EventType{llm.EventReasoningEnd, llm.EventTextEnd}, closeOrder)
}

func TestChatStream_FragmentReconciliation(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: {"tool_calls":[{"index":0,"name":"get"}]}`,
		`data: {"tool_calls":[{"index":0,"arguments":"{\"a\":"}]}`,
		`data: {"tool_calls":[{"index":0,"arguments":"1}"}]}`,
		`data: [DONE]`,
	))

	var calls []*llm.ToolCallPart
	for _, ev := range events {
		if ev.Type == llm.EventToolCall {
			calls = append(calls, ev.ToolCall)
		}
	}
	require.Len(t, calls, 1)
	assert.Equal(t, "get", calls[0].Name)
	assert.JSONEq(t, `{"a":1}`, string(calls[0].Input))
	assert.NotEmpty(t, calls[0].ID)
}

func TestChatStream_FragmentsEmittedInIndexOrder(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: {"tool_calls":[{"index":1,"name":"second","arguments":"{}"}]}`,
		`data: {"tool_calls":[{"index":0,"name":"first","arguments":"{}"}]}`,
		`data: [DONE]`,
	))

	var names []string
	for _, ev := range events {
		if ev.Type == llm.EventToolCall {
			names = append(names, ev.ToolCall.Name)
		}
	}
	assert.Equal(t, []string{"first", "second"}, names)
}

func TestChatStream_MalformedFragmentDropped(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: {"tool_calls":[{"index":0,"name":"broken","arguments":"{\"a\":"}]}`,
		`data: {"tool_calls":[{"index":1,"function":{"name":"good","arguments":"{\"b\":2}"}}]}`,
		`data: [DONE]`,
	))
	assertFraming(t, events)

	var names []string
	for _, ev := range events {
		if ev.Type == llm.EventToolCall {
			names = append(names, ev.ToolCall.Name)
		}
	}
	assert.Equal(t, []string{"good"}, names)
}

func TestChatStream_UsageLastWriteWins(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: {"usage":{"prompt_tokens":1,"completion_tokens":2}}`,
		`data: {"response":"x","usage":{"prompt_tokens":10,"completion_tokens":20}}`,
		`data: [DONE]`,
	))

	finish := events[len(events)-1]
	require.Equal(t, llm.EventFinish, finish.Type)
	require.NotNil(t, finish.Usage)
	assert.Equal(t, 10, finish.Usage.InputTokens)
	assert.Equal(t, 20, finish.Usage.OutputTokens)
	assert.Equal(t, 30, finish.Usage.TotalTokens)
}

func TestChatStream_EmptyStreamStillFinishes(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(`data: [DONE]`))

	require.Len(t, events, 2)
	assert.Equal(t, llm.EventStreamStart, events[0].Type)
	assert.Equal(t, llm.EventFinish, events[1].Type)
	assert.Equal(t, llm.FinishStop, events[1].FinishReason)
	require.NotNil(t, events[1].Usage)
	assert.Zero(t, events[1].Usage.TotalTokens)
}

func TestChatStream_EOFWithoutSentinelFinishes(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(`data: {"response":"partial"}`))
	assertFraming(t, events)
}

func TestChatStream_UnparseableChunkSkipped(t *testing.T) {
	t.Parallel()

	events := collectEvents(t, streamFromLines(
		`data: not json at all`,
		`data: {"response":"ok"}`,
		`data: [DONE]`,
	))
	assertFraming(t, events)

	var text strings.Builder
	for _, ev := range events {
		if ev.Type == llm.EventTextDelta {
			text.WriteString(ev.Text)
		}
	}
	assert.Equal(t, "ok", text.String())
}

func TestChatStream_CloseReleasesBody(t *testing.T) {
	t.Parallel()

	body := &closeRecorder{Reader: strings.NewReader(`data: {"response":"x"}`)}
	s := newChatStream(body, nil)
	require.True(t, s.Next())
	require.NoError(t, s.Close())
	assert.True(t, body.closed)
	assert.False(t, s.Next())
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func eventTypes(events []llm.Event) []llm.EventType {
	types := make([]llm.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}
