package projector

import (
	"encoding/json"
	"regexp"
	"sync"
)

// MaxListItems caps the elements captured for a list field while streaming.
const MaxListItems = 12

var patternCache sync.Map // string -> *regexp.Regexp

// fieldOpener matches `"key"` followed by a colon and the opening character
// of its value (`"`, `[` or `{`).
func fieldOpener(key string, open byte) *regexp.Regexp {
	cacheKey := key + string(open)
	if re, ok := patternCache.Load(cacheKey); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*` + regexp.QuoteMeta(string(open)))
	actual, _ := patternCache.LoadOrStore(cacheKey, re)
	return actual.(*regexp.Regexp)
}

// extractScalar captures the string value of key. When the closing quote
// has not arrived yet the text received so far is returned, so the value
// grows as the stream progresses.
func extractScalar(text, key string) (string, bool) {
	loc := fieldOpener(key, '"').FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	raw, _ := scanString(text, loc[1])
	return decodeString(raw), true
}

// extractList captures every complete string element of the array value of
// key. An element still missing its closing quote is left out.
func extractList(text, key string) ([]string, bool) {
	loc := fieldOpener(key, '[').FindStringIndex(text)
	if loc == nil {
		return nil, false
	}

	var items []string
	depth := 0
	for i := loc[1]; i < len(text) && len(items) < MaxListItems; i++ {
		switch text[i] {
		case '"':
			raw, end := scanString(text, i+1)
			if end < 0 {
				return items, true
			}
			if depth == 0 && raw != "" {
				items = append(items, decodeString(raw))
			}
			i = end
		case '[', '{':
			depth++
		case ']', '}':
			if depth == 0 {
				return items, true
			}
			depth--
		}
	}
	return items, true
}

// extractObject returns the text of the object value of key, up to its
// closing brace or the end of the text when it is still open.
func extractObject(text, key string) (string, bool) {
	loc := fieldOpener(key, '{').FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	depth := 0
	for i := loc[1]; i < len(text); i++ {
		switch text[i] {
		case '"':
			_, end := scanString(text, i+1)
			if end < 0 {
				return text[loc[1]:], true
			}
			i = end
		case '{', '[':
			depth++
		case '}', ']':
			if depth == 0 {
				return text[loc[1]:i], true
			}
			depth--
		}
	}
	return text[loc[1]:], true
}

// scanString reads a JSON string body starting at start (just past the
// opening quote). It returns the raw body and the index of the closing
// quote, or -1 when the string is unterminated.
func scanString(text string, start int) (string, int) {
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			return text[start:i], i
		}
	}
	return text[start:], -1
}

// decodeString resolves JSON escapes in a raw string body. A body cut in
// the middle of an escape sequence is trimmed back until it decodes; if it
// never does, the raw body is returned as is.
func decodeString(raw string) string {
	for cut := 0; cut <= 6 && cut <= len(raw); cut++ {
		var s string
		if err := json.Unmarshal([]byte(`"`+raw[:len(raw)-cut]+`"`), &s); err == nil {
			return s
		}
	}
	return raw
}
