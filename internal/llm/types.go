package llm

import "encoding/json"

// Role of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType enumerates the content part kinds a turn may carry.
type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeReasoning  PartType = "reasoning"
	PartTypeFile       PartType = "file"
	PartTypeToolCall   PartType = "tool_call"
	PartTypeToolResult PartType = "tool_result"
)

// FilePart carries an attachment. In the current contract a user turn may
// attach at most one file per call, and its bytes must be an image.
type FilePart struct {
	Data      []byte `json:"data"`
	MediaType string `json:"mediaType"`
	Filename  string `json:"filename,omitempty"`
}

// ToolCallPart is a tool invocation emitted by the assistant.
type ToolCallPart struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultPart is the output of a previously requested tool call,
// carried in a tool turn.
type ToolResultPart struct {
	ToolName string `json:"toolName"`
	Output   any    `json:"output"`
}

// Part is a single content part within a turn. Type selects which of the
// payload fields is populated.
type Part struct {
	Type       PartType        `json:"type"`
	Text       string          `json:"text,omitempty"`
	File       *FilePart       `json:"file,omitempty"`
	ToolCall   *ToolCallPart   `json:"toolCall,omitempty"`
	ToolResult *ToolResultPart `json:"toolResult,omitempty"`
}

// Message is one conversation turn: a role and its ordered content parts.
type Message struct {
	Role    Role   `json:"role"`
	Content []Part `json:"content"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// ReasoningPart builds a reasoning content part.
func ReasoningPart(text string) Part {
	return Part{Type: PartTypeReasoning, Text: text}
}

// UserMessage builds a user turn with a single text part.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []Part{TextPart(text)}}
}

// Usage is the normalized token accounting for one call.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// FinishReason is the canonical completion signal. Every backend value maps
// to exactly one of these buckets; unrecognized values become FinishUnknown.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishToolCalls FinishReason = "tool-calls"
	FinishUnknown   FinishReason = "unknown"
)

// Warning reports a call setting that was accepted but not honored.
type Warning struct {
	Setting string `json:"setting"`
	Message string `json:"message"`
}

// Result is the outcome of a non-streaming call.
type Result struct {
	Content      []Part       `json:"content"`
	FinishReason FinishReason `json:"finishReason"`
	Usage        Usage        `json:"usage"`
	Warnings     []Warning    `json:"warnings,omitempty"`
}
