// Package reflection holds the value types shared by the reflection
// pipeline: the generation mode a caller asks for and the structured result
// the model produces (partial or final).
package reflection

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects which output shape a generation request expects.
type Mode string

const (
	ModeSocratic   Mode = "socratic"
	ModeStructured Mode = "structured"
	ModeWeekly     Mode = "weekly"
	ModeGeneral    Mode = "general"
)

// Field keys of the recognized output shapes.
const (
	KeyQuestions  = "questions"
	KeyNextAction = "next_action"
	KeyText       = "text"
	KeyDeadline   = "deadline"

	KeyWhyItMatters  = "why_it_matters"
	KeyAssumptions   = "assumptions"
	KeyRisks         = "risks"
	KeyFirstStep     = "first_step_30min"
	KeySuccessMetric = "success_metric"

	KeyTopics           = "topics"
	KeyBeliefToQuestion = "belief_to_question"
	KeyMicroExperiment  = "micro_experiment"

	KeySummary  = "summary"
	KeyInsights = "insights"
	KeyActions  = "actions"
)

var modeAliases = map[string]Mode{
	"socratic":     ModeSocratic,
	"socratico":    ModeSocratic,
	"structured":   ModeStructured,
	"estructurado": ModeStructured,
	"weekly":       ModeWeekly,
	"semanal":      ModeWeekly,
	"general":      ModeGeneral,
}

// ParseMode normalizes a caller supplied mode. Unknown values map to
// ModeGeneral, which selects the generic field set.
func ParseMode(s string) Mode {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return ModeGeneral
}

// Known reports whether the mode is one of the recognized shapes rather
// than the general fallback.
func (m Mode) Known() bool {
	return m == ModeSocratic || m == ModeStructured || m == ModeWeekly
}

func (m Mode) String() string { return string(m) }

// Result is a structured reflection value. Values are strings, []any of
// strings, or nested map[string]any, matching what encoding/json produces
// for a generic object.
type Result map[string]any

// ParseExact decodes text as a JSON object. Any other JSON value is an error
// since a reflection is always an object.
func ParseExact(text string) (Result, error) {
	var r Result
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("reflection: payload is not an object")
	}
	return r, nil
}

// Has reports whether key is present with a non-nil value.
func (r Result) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Text returns the string value of key. Non-string scalars are stringified;
// lists and objects are not text.
func (r Result) Text(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []any, []string, map[string]any, Result:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}

// Strings returns the elements of a list value as strings. Non-string
// elements are stringified so a loosely shaped payload still renders.
func (r Result) Strings(key string) ([]string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else if e != nil {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Object returns a nested mapping value.
func (r Result) Object(key string) (Result, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		return Result(t), true
	case Result:
		return t, true
	default:
		return nil, false
	}
}

// NonEmptyText reports whether key holds a non-blank string.
func (r Result) NonEmptyText(key string) bool {
	s, ok := r.Text(key)
	return ok && strings.TrimSpace(s) != ""
}

// NonEmptyList reports whether key holds a list with at least one element.
func (r Result) NonEmptyList(key string) bool {
	l, ok := r.Strings(key)
	return ok && len(l) > 0
}
