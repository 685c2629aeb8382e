package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/llm"
)

// stubStream replays a fixed event slice.
type stubStream struct {
	events []llm.Event
	cur    llm.Event
	err    error
	closed bool
}

func (s *stubStream) Next() bool {
	if len(s.events) == 0 {
		return false
	}
	s.cur = s.events[0]
	s.events = s.events[1:]
	return true
}

func (s *stubStream) Current() llm.Event { return s.cur }
func (s *stubStream) Err() error         { return s.err }
func (s *stubStream) Close() error       { s.closed = true; return nil }

type stubProvider struct {
	result    *llm.Result
	stream    *stubStream
	streamErr error
}

func (p *stubProvider) Generate(ctx context.Context, opts llm.CallOptions) (*llm.Result, error) {
	if p.result == nil {
		return nil, errors.New("no result configured")
	}
	return p.result, nil
}

func (p *stubProvider) Stream(ctx context.Context, opts llm.CallOptions) (llm.Stream, error) {
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return p.stream, nil
}

func TestHandleChat_StreamsEventsOverSSE(t *testing.T) {
	t.Parallel()

	usage := llm.Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}
	stream := &stubStream{events: []llm.Event{
		{Type: llm.EventStreamStart},
		{Type: llm.EventTextStart, ID: "t1"},
		{Type: llm.EventTextDelta, ID: "t1", Text: "hi"},
		{Type: llm.EventTextEnd, ID: "t1"},
		{Type: llm.EventFinish, FinishReason: llm.FinishStop, Usage: &usage},
	}}
	srv := NewServer(&stubProvider{stream: stream})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: stream_start\n")
	assert.Contains(t, body, "event: text_delta\n")
	assert.Contains(t, body, `"text":"hi"`)
	assert.Contains(t, body, "event: finish\n")
	assert.True(t, stream.closed)
}

func TestHandleChat_SetupErrorFailsRequest(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubProvider{streamErr: errors.New("backend down")})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend down")
}

func TestHandleChat_MidStreamErrorSendsErrorEvent(t *testing.T) {
	t.Parallel()

	stream := &stubStream{
		events: []llm.Event{{Type: llm.EventStreamStart}},
		err:    errors.New("connection reset"),
	}
	srv := NewServer(&stubProvider{stream: stream})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "event: error\n")
	assert.Contains(t, rec.Body.String(), "connection reset")
}

func TestHandleChat_RejectsEmptyBody(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerate_ReturnsResult(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubProvider{result: &llm.Result{
		Content:      []llm.Part{llm.TextPart("done")},
		FinishReason: llm.FinishStop,
	}})

	req := httptest.NewRequest(http.MethodPost, "/v1/generate",
		strings.NewReader(`{"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"done"`)
	assert.Contains(t, rec.Body.String(), `"finishReason":"stop"`)
}

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubProvider{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
