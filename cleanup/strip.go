// Package cleanup strips non-JSON wrapper content from text before repair:
// markdown code fences and surrounding prose. It is deliberately shallow;
// everything inside the payload is someone else's problem.
package cleanup

import "strings"

// Strip returns the JSON-ish payload embedded in s. A fenced code block wins
// over everything else; failing that, prose before the first opening
// delimiter and after the last closing delimiter is dropped. Text with no
// delimiters at all, such as a bare scalar, is returned trimmed.
func Strip(s string) string {
	s = strings.TrimSpace(s)
	if inner, ok := cutFence(s); ok {
		return extract(inner)
	}
	return extract(s)
}

// cutFence extracts the body of the first ``` code block. The language tag,
// when present, is discarded whether or not a newline follows it.
func cutFence(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	inner := s[start+3:]
	if len(inner) >= 4 && strings.EqualFold(inner[:4], "json") {
		inner = inner[4:]
	}
	if end := strings.Index(inner, "```"); end >= 0 {
		inner = inner[:end]
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return "", false
	}
	return inner, true
}

func extract(s string) string {
	first := strings.IndexAny(s, "{[")
	if first < 0 {
		return s
	}
	last := strings.LastIndexAny(s, "}]")
	if last < first {
		// Truncated payload with no closer yet; keep everything from the
		// opener on so the repair passes can finish it.
		return s[first:]
	}
	if strings.TrimSpace(s[:first]) == "" && strings.TrimSpace(s[last+1:]) == "" {
		return s
	}
	return s[first : last+1]
}
