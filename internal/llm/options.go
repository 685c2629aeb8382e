package llm

import "encoding/json"

// Tool describes a function the model may call. Parameters is a JSON schema.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type ToolChoiceType string

const (
	ToolChoiceAuto     ToolChoiceType = "auto"
	ToolChoiceNone     ToolChoiceType = "none"
	ToolChoiceRequired ToolChoiceType = "required"
	ToolChoiceTool     ToolChoiceType = "tool"
)

// ToolChoice selects the tool-use policy. Name is set only for ToolChoiceTool.
type ToolChoice struct {
	Type ToolChoiceType `json:"type"`
	Name string         `json:"name,omitempty"`
}

type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSONSchema ResponseFormatType = "json-schema"
)

// ResponseFormat constrains the shape of the model output.
type ResponseFormat struct {
	Type   ResponseFormatType `json:"type"`
	Schema json.RawMessage    `json:"schema,omitempty"`
	Name   string             `json:"name,omitempty"`
}

// CallOptions is the full configuration bundle for one call.
//
// FrequencyPenalty and PresencePenalty are accepted for caller compatibility
// but the backend has no equivalent; they produce a Warning on the result.
type CallOptions struct {
	Messages         []Message       `json:"messages"`
	Tools            []Tool          `json:"tools,omitempty"`
	ToolChoice       *ToolChoice     `json:"toolChoice,omitempty"`
	MaxTokens        int             `json:"maxTokens,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
	TopP             *float64        `json:"topP,omitempty"`
	Seed             *int            `json:"seed,omitempty"`
	ResponseFormat   *ResponseFormat `json:"responseFormat,omitempty"`
	FrequencyPenalty *float64        `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64        `json:"presencePenalty,omitempty"`
}
