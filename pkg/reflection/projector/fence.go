package projector

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```(?i:json)?[ \t]*\\r?\\n?")
	trailingFence = regexp.MustCompile("\\r?\\n?[ \t]*```$")
)

// StripFences removes a surrounding markdown code fence (```json ... ```)
// from model output. The closing fence may not have arrived yet, so each
// side is stripped independently.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	trimmed = leadingFence.ReplaceAllString(trimmed, "")
	trimmed = trailingFence.ReplaceAllString(trimmed, "")
	return strings.TrimSpace(trimmed)
}
