package workersai

// Wire types for the Workers AI chat endpoint. The format is close to, but
// not compatible with, OpenAI chat completions: plain text may arrive in a
// top-level "response" field, tool calls live outside choices, and a single
// image is passed as a sibling request field encoded as an array of byte
// values.

// ChatMessage is one flat backend message. Content is always a single string;
// structured canonical content is serialized or concatenated before
// assignment.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a completed tool invocation attached to an assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds a function name and its arguments as a JSON string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// RequestTool declares a callable function in a request.
type RequestTool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// RequestResponseFormat constrains the output shape.
type RequestResponseFormat struct {
	Type       string `json:"type"`
	JSONSchema any    `json:"json_schema,omitempty"`
}

// ChatRequest is the single JSON request object sent to the backend.
type ChatRequest struct {
	Model          string                 `json:"model"`
	Messages       []ChatMessage          `json:"messages"`
	MaxTokens      int                    `json:"max_tokens,omitempty"`
	Temperature    *float64               `json:"temperature,omitempty"`
	TopP           *float64               `json:"top_p,omitempty"`
	RandomSeed     *int                   `json:"random_seed,omitempty"`
	Tools          []RequestTool          `json:"tools,omitempty"`
	ToolChoice     any                    `json:"tool_choice,omitempty"`
	ResponseFormat *RequestResponseFormat `json:"response_format,omitempty"`
	Image          []int                  `json:"image,omitempty"`
	Stream         bool                   `json:"stream,omitempty"`
}

// UsageRecord is the backend's token accounting.
type UsageRecord struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// PartialToolCall is one tool-call entry as reported by the backend. In a
// response it is complete; in a stream chunk any field may be missing, with
// name and arguments split across many chunks sharing an index. Some
// deployments nest name/arguments under a function object instead of
// inlining them.
type PartialToolCall struct {
	Index     int           `json:"index"`
	ID        string        `json:"id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Function  *FunctionCall `json:"function,omitempty"`
}

// FunctionName returns the name regardless of which encoding was used.
func (c PartialToolCall) FunctionName() string {
	if c.Function != nil && c.Function.Name != "" {
		return c.Function.Name
	}
	return c.Name
}

// FunctionArguments returns the arguments fragment regardless of encoding.
func (c PartialToolCall) FunctionArguments() string {
	if c.Function != nil && c.Function.Arguments != "" {
		return c.Function.Arguments
	}
	return c.Arguments
}

// ResponseMessage is the message object of a non-streaming choice.
type ResponseMessage struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

type ResponseChoice struct {
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ChatResponse is one complete non-streaming backend response.
type ChatResponse struct {
	Response  string            `json:"response"`
	Choices   []ResponseChoice  `json:"choices,omitempty"`
	ToolCalls []PartialToolCall `json:"tool_calls,omitempty"`
	Usage     *UsageRecord      `json:"usage,omitempty"`
}

// ChunkDelta is the incremental payload of a streaming choice.
type ChunkDelta struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content"`
}

type ChunkChoice struct {
	Delta ChunkDelta `json:"delta"`
}

// StreamChunk is one parsed streaming payload. All fields are optional; a
// chunk may carry any combination of them.
type StreamChunk struct {
	Response  string            `json:"response"`
	Choices   []ChunkChoice     `json:"choices,omitempty"`
	ToolCalls []PartialToolCall `json:"tool_calls,omitempty"`
	Usage     *UsageRecord      `json:"usage,omitempty"`
}
