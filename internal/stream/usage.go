package stream

import (
	"github.com/qduc/chat-sub010/internal/types"
)

// UsageFromMap normalizes heterogeneous provider token-count field names
// into the canonical usage object. Returns nil when no token counts are
// present at all.
func UsageFromMap(m map[string]any) *types.Usage {
	if len(m) == 0 {
		return nil
	}

	pt := firstInt(m, "prompt_tokens", "input_tokens", "promptTokenCount")
	ct := firstInt(m, "completion_tokens", "output_tokens", "candidatesTokenCount")
	tt := firstInt(m, "total_tokens", "totalTokenCount")
	rt := firstInt(m, "reasoning_tokens", "thoughtsTokenCount")
	if rt == 0 {
		if details, ok := m["completion_tokens_details"].(map[string]any); ok {
			rt = types.IntFromAny(details["reasoning_tokens"])
		}
	}
	if rt == 0 {
		if details, ok := m["output_tokens_details"].(map[string]any); ok {
			rt = types.IntFromAny(details["reasoning_tokens"])
		}
	}

	if pt == 0 && ct == 0 && tt == 0 && rt == 0 {
		return nil
	}
	if tt == 0 {
		tt = pt + ct
	}
	return &types.Usage{
		PromptTokens:     pt,
		CompletionTokens: ct,
		TotalTokens:      tt,
		ReasoningTokens:  rt,
	}
}

func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n := types.IntFromAny(v); n != 0 {
				return n
			}
		}
	}
	return 0
}
