package llm

// EventType enumerates the canonical stream framing events.
type EventType string

const (
	EventStreamStart    EventType = "stream_start"
	EventTextStart      EventType = "text_start"
	EventTextDelta      EventType = "text_delta"
	EventTextEnd        EventType = "text_end"
	EventReasoningStart EventType = "reasoning_start"
	EventReasoningDelta EventType = "reasoning_delta"
	EventReasoningEnd   EventType = "reasoning_end"
	EventToolCall       EventType = "tool_call"
	EventFinish         EventType = "finish"
)

// Event is one element of the canonical stream.
//
// Framing contract: every *_start{id} is followed, before the stream ends, by
// zero or more *_delta events carrying the same id and exactly one *_end{id};
// at most one text block and one reasoning block are open at a time; finish is
// always the terminal event and occurs exactly once.
type Event struct {
	Type         EventType     `json:"type"`
	ID           string        `json:"id,omitempty"`
	Text         string        `json:"text,omitempty"`
	ToolCall     *ToolCallPart `json:"toolCall,omitempty"`
	Warnings     []Warning     `json:"warnings,omitempty"`
	FinishReason FinishReason  `json:"finishReason,omitempty"`
	Usage        *Usage        `json:"usage,omitempty"`
}
