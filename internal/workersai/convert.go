package workersai

import (
	"encoding/json"
	"fmt"
	"strings"

	"relay/internal/llm"
)

// toolCallID synthesizes a deterministic tool-call id from the function name
// and the call's position within its turn. The backend does not assign ids,
// so both the assistant side and the tool-result side compute the same
// formula to keep call/result correlation stable.
func toolCallID(name string, index int) string {
	return fmt.Sprintf("functions.%s:%d", name, index)
}

// convertPrompt translates canonical turns into the backend's flat message
// list. File parts are extracted into the returned side-channel instead of
// being inlined; the request builder attaches at most one of them as the
// request's image field.
func convertPrompt(messages []llm.Message) ([]ChatMessage, []llm.FilePart, error) {
	var out []ChatMessage
	var images []llm.FilePart

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			var texts []string
			for _, part := range msg.Content {
				if part.Type != llm.PartTypeText {
					return nil, nil, fmt.Errorf("unsupported content part type %q for system role", part.Type)
				}
				texts = append(texts, part.Text)
			}
			out = append(out, ChatMessage{
				Role:    "system",
				Content: strings.Join(texts, "\n"),
			})

		case llm.RoleUser:
			// Every part renders to a string joined by newlines; file parts
			// render empty and land in the image side-channel instead.
			rendered := make([]string, 0, len(msg.Content))
			for _, part := range msg.Content {
				switch part.Type {
				case llm.PartTypeText:
					rendered = append(rendered, part.Text)
				case llm.PartTypeFile:
					if part.File == nil {
						return nil, nil, fmt.Errorf("file part missing file data")
					}
					images = append(images, *part.File)
					rendered = append(rendered, "")
				default:
					return nil, nil, fmt.Errorf("unsupported content part type %q for user role", part.Type)
				}
			}
			out = append(out, ChatMessage{
				Role:    "user",
				Content: strings.Join(rendered, "\n"),
			})

		case llm.RoleAssistant:
			var text string
			var toolCalls []ToolCall
			for _, part := range msg.Content {
				switch part.Type {
				case llm.PartTypeText, llm.PartTypeReasoning:
					text += part.Text
				case llm.PartTypeToolCall:
					if part.ToolCall == nil {
						return nil, nil, fmt.Errorf("tool_call part missing call data")
					}
					// Each call replaces the running text with its own JSON
					// summary; the last call in the turn wins.
					summary, err := json.Marshal(struct {
						Name       string          `json:"name"`
						Parameters json.RawMessage `json:"parameters"`
					}{
						Name:       part.ToolCall.Name,
						Parameters: part.ToolCall.Input,
					})
					if err != nil {
						return nil, nil, fmt.Errorf("encoding tool call %s: %w", part.ToolCall.Name, err)
					}
					text = string(summary)
					toolCalls = append(toolCalls, ToolCall{
						ID:   toolCallID(part.ToolCall.Name, len(toolCalls)),
						Type: "function",
						Function: FunctionCall{
							Name:      part.ToolCall.Name,
							Arguments: string(part.ToolCall.Input),
						},
					})
				default:
					return nil, nil, fmt.Errorf("unsupported content part type %q for assistant role", part.Type)
				}
			}
			out = append(out, ChatMessage{
				Role:      "assistant",
				Content:   text,
				ToolCalls: toolCalls, // omitted from the wire when nil
			})

		case llm.RoleTool:
			for i, part := range msg.Content {
				if part.Type != llm.PartTypeToolResult {
					return nil, nil, fmt.Errorf("unsupported content part type %q for tool role", part.Type)
				}
				if part.ToolResult == nil {
					return nil, nil, fmt.Errorf("tool_result part missing result data")
				}
				output, err := json.Marshal(part.ToolResult.Output)
				if err != nil {
					return nil, nil, fmt.Errorf("encoding tool result for %s: %w", part.ToolResult.ToolName, err)
				}
				out = append(out, ChatMessage{
					Role:       "tool",
					Name:       part.ToolResult.ToolName,
					Content:    string(output),
					ToolCallID: toolCallID(part.ToolResult.ToolName, i),
				})
			}

		default:
			return nil, nil, fmt.Errorf("unsupported role: %s", msg.Role)
		}
	}

	return out, images, nil
}
