package workersai

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"relay/internal/llm"
	"relay/internal/trace"
)

// Provider adapts the canonical chat protocol to the Workers AI wire format.
type Provider struct {
	client *Client
	model  string
}

var _ llm.Provider = (*Provider)(nil)

func NewProvider(client *Client, model string) *Provider {
	return &Provider{client: client, model: model}
}

// buildRequest assembles the backend request and collects warnings for
// accepted-but-unsupported settings. Fatal conditions (unknown response
// format, more than one image) surface here, before any backend call.
func (p *Provider) buildRequest(opts llm.CallOptions) (*ChatRequest, []llm.Warning, error) {
	var warnings []llm.Warning
	if opts.FrequencyPenalty != nil {
		warnings = append(warnings, llm.Warning{
			Setting: "frequencyPenalty",
			Message: "setting is not supported by this backend",
		})
	}
	if opts.PresencePenalty != nil {
		warnings = append(warnings, llm.Warning{
			Setting: "presencePenalty",
			Message: "setting is not supported by this backend",
		})
	}

	messages, images, err := convertPrompt(opts.Messages)
	if err != nil {
		return nil, nil, err
	}
	if len(images) > 1 {
		return nil, nil, fmt.Errorf("at most one image is supported per call, got %d", len(images))
	}

	req := &ChatRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		RandomSeed:  opts.Seed,
	}

	if len(opts.Tools) > 0 {
		for _, tool := range opts.Tools {
			req.Tools = append(req.Tools, RequestTool{
				Type: "function",
				Function: FunctionDef{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		if opts.ToolChoice != nil {
			choice, err := convertToolChoice(*opts.ToolChoice)
			if err != nil {
				return nil, nil, err
			}
			req.ToolChoice = choice
		}
	}

	if opts.ResponseFormat != nil {
		switch opts.ResponseFormat.Type {
		case llm.ResponseFormatText:
			// Backend default; nothing to send.
		case llm.ResponseFormatJSONSchema:
			req.ResponseFormat = &RequestResponseFormat{
				Type:       "json_schema",
				JSONSchema: opts.ResponseFormat.Schema,
			}
		default:
			return nil, nil, fmt.Errorf("unsupported response format: %s", opts.ResponseFormat.Type)
		}
	}

	if len(images) == 1 {
		data := images[0].Data
		bytes := make([]int, len(data))
		for i, b := range data {
			bytes[i] = int(b)
		}
		req.Image = bytes
	}

	return req, warnings, nil
}

func convertToolChoice(choice llm.ToolChoice) (any, error) {
	switch choice.Type {
	case llm.ToolChoiceAuto:
		return "auto", nil
	case llm.ToolChoiceNone:
		return "none", nil
	case llm.ToolChoiceRequired:
		return "any", nil
	case llm.ToolChoiceTool:
		return map[string]any{
			"type":     "function",
			"function": map[string]string{"name": choice.Name},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported tool choice: %s", choice.Type)
	}
}

// Generate performs one blocking call and decomposes the response into
// ordered canonical parts.
func (p *Provider) Generate(ctx context.Context, opts llm.CallOptions) (*llm.Result, error) {
	ctx, span := trace.Tracer().Start(ctx, "workersai.generate",
		oteltrace.WithAttributes(attribute.String("llm.model", p.model)),
	)
	defer span.End()

	req, warnings, err := p.buildRequest(opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp, err := p.client.Call(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	content := decomposeResponse(resp)

	var usage llm.Usage
	if resp.Usage != nil {
		usage = normalizeUsage(*resp.Usage)
	}

	finish := llm.FinishStop
	if len(resp.Choices) > 0 && resp.Choices[0].FinishReason != "" {
		finish = normalizeFinishReason(resp.Choices[0].FinishReason)
	} else if hasToolCall(content) {
		finish = llm.FinishToolCalls
	}

	span.SetAttributes(
		attribute.Int("llm.input_tokens", usage.InputTokens),
		attribute.Int("llm.output_tokens", usage.OutputTokens),
		attribute.String("llm.finish_reason", string(finish)),
	)

	return &llm.Result{
		Content:      content,
		FinishReason: finish,
		Usage:        usage,
		Warnings:     warnings,
	}, nil
}

// Stream returns the canonical event stream for one call. Turns whose most
// recent message is a user turn with tools enabled are routed through a
// single blocking call replayed as a synthetic stream; everything else
// streams incrementally from the backend.
func (p *Provider) Stream(ctx context.Context, opts llm.CallOptions) (llm.Stream, error) {
	if len(opts.Messages) == 0 {
		return nil, errors.New("prompt must contain at least one message")
	}

	last := opts.Messages[len(opts.Messages)-1]
	if last.Role == llm.RoleUser && len(opts.Tools) > 0 {
		return newSimulatedStream(ctx, p, opts), nil
	}

	req, warnings, err := p.buildRequest(opts)
	if err != nil {
		return nil, err
	}

	body, err := p.client.CallStream(ctx, req)
	if err != nil {
		return nil, err
	}

	return newChatStream(body, warnings), nil
}

func hasToolCall(parts []llm.Part) bool {
	for _, part := range parts {
		if part.Type == llm.PartTypeToolCall {
			return true
		}
	}
	return false
}
