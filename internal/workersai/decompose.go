package workersai

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"relay/internal/llm"
)

// decomposeResponse splits one complete backend response into ordered
// canonical parts. The emission order is a contract: an optional reasoning
// part first, then exactly one text part (empty string when the response has
// none), then zero or more tool-call parts. Downstream consumers rely on
// this order without inspecting types.
func decomposeResponse(resp *ChatResponse) []llm.Part {
	var parts []llm.Part

	if len(resp.Choices) > 0 && resp.Choices[0].Message.ReasoningContent != "" {
		parts = append(parts, llm.ReasoningPart(resp.Choices[0].Message.ReasoningContent))
	}

	text := resp.Response
	if text == "" && len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	parts = append(parts, llm.TextPart(text))

	for _, call := range resp.ToolCalls {
		name := call.FunctionName()
		args := call.FunctionArguments()
		if name == "" || !json.Valid([]byte(args)) {
			slog.Debug("dropping malformed tool call in response", "name", name)
			continue
		}
		id := call.ID
		if id == "" {
			id = uuid.NewString()
		}
		parts = append(parts, llm.Part{
			Type: llm.PartTypeToolCall,
			ToolCall: &llm.ToolCallPart{
				ID:    id,
				Name:  name,
				Input: json.RawMessage(args),
			},
		})
	}

	return parts
}
