package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"relay/internal/llm"
)

type chatRequest struct {
	Messages         []llm.Message       `json:"messages"`
	Tools            []llm.Tool          `json:"tools,omitempty"`
	ToolChoice       *llm.ToolChoice     `json:"toolChoice,omitempty"`
	MaxTokens        int                 `json:"maxTokens,omitempty"`
	Temperature      *float64            `json:"temperature,omitempty"`
	TopP             *float64            `json:"topP,omitempty"`
	Seed             *int                `json:"seed,omitempty"`
	ResponseFormat   *llm.ResponseFormat `json:"responseFormat,omitempty"`
	FrequencyPenalty *float64            `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64            `json:"presencePenalty,omitempty"`
}

func (r chatRequest) callOptions() llm.CallOptions {
	return llm.CallOptions{
		Messages:         r.Messages,
		Tools:            r.Tools,
		ToolChoice:       r.ToolChoice,
		MaxTokens:        r.MaxTokens,
		Temperature:      r.Temperature,
		TopP:             r.TopP,
		Seed:             r.Seed,
		ResponseFormat:   r.ResponseFormat,
		FrequencyPenalty: r.FrequencyPenalty,
		PresencePenalty:  r.PresencePenalty,
	}
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return req, false
	}
	if len(req.Messages) == 0 {
		http.Error(w, `{"error":"messages are required"}`, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// handleChat streams canonical events over SSE. Fatal conditions before the
// first event fail the whole request; once streaming has begun, failures are
// reported as a terminal error event since no partial-success state exists.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	stream, err := s.provider.Stream(r.Context(), req.callOptions())
	if err != nil {
		slog.Warn("stream setup failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	defer stream.Close()

	sse := NewSSEWriter(w)
	for stream.Next() {
		if err := sse.Send(string(stream.Current().Type), stream.Current()); err != nil {
			// Client went away; stop pulling so the upstream reader is
			// released promptly.
			slog.Debug("sse write failed", "error", err)
			return
		}
	}
	if err := stream.Err(); err != nil {
		slog.Warn("stream failed", "error", err)
		sse.Send("error", map[string]string{"error": err.Error()})
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	result, err := s.provider.Generate(r.Context(), req.callOptions())
	if err != nil {
		slog.Warn("generate failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
