package analysis

import "strings"

// UnwrapFence strips an optional surrounding code fence from a model
// reply. Three cases: a ```json fence, a generic ``` fence, or raw text.
// Only the first fenced block is considered.
func UnwrapFence(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		rest := s[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+len("```"):]
		// Drop a language tag on the opening fence line.
		if nl := strings.Index(rest, "\n"); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	return strings.TrimSpace(s)
}
