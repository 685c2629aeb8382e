package workersai

import "relay/internal/llm"

// normalizeUsage maps the backend token record to the canonical triple.
// Total falls back to the sum when the backend omits it.
func normalizeUsage(u UsageRecord) llm.Usage {
	total := u.TotalTokens
	if total == 0 {
		total = u.PromptTokens + u.CompletionTokens
	}
	return llm.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  total,
	}
}

// normalizeFinishReason buckets a backend completion signal into the
// canonical enum. Unrecognized values map to unknown rather than failing.
func normalizeFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "stop", "completed", "end_turn":
		return llm.FinishStop
	case "length", "max_tokens", "model_length":
		return llm.FinishLength
	case "tool_calls", "tool_call", "function_call":
		return llm.FinishToolCalls
	default:
		return llm.FinishUnknown
	}
}
