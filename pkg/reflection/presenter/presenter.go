// Package presenter converts reflection values into renderable sections and
// into the plain-text body of a note.
package presenter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"ai-notes-reflect/pkg/reflection"
	"ai-notes-reflect/pkg/reflection/shape"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxTitleLength bounds the title derived from exported text, in runes.
const MaxTitleLength = 120

const defaultSubjectTitle = "Note"

// Section is one labeled block of a rendered reflection. Either Text or
// Items is set.
type Section struct {
	Title string   `json:"title"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Render builds the sections for v under shape s. Absent fields produce no
// section.
func Render(v reflection.Result, s shape.Shape) []Section {
	if len(v) == 0 {
		return nil
	}

	var out []Section
	switch s {
	case shape.Socratic:
		out = appendList(out, "Questions", v, reflection.KeyQuestions)
		if action := nextAction(v); action != "" {
			out = append(out, Section{Title: "Next action", Text: action})
		}
	case shape.Structured:
		out = appendText(out, "Why it matters", v, reflection.KeyWhyItMatters)
		out = appendList(out, "Assumptions", v, reflection.KeyAssumptions)
		out = appendList(out, "Risks", v, reflection.KeyRisks)
		out = appendText(out, "First step (30 min)", v, reflection.KeyFirstStep)
		out = appendText(out, "Success metric", v, reflection.KeySuccessMetric)
	case shape.Weekly:
		out = appendList(out, "Topics", v, reflection.KeyTopics)
		out = appendText(out, "Belief to question", v, reflection.KeyBeliefToQuestion)
		out = appendText(out, "Micro-experiment", v, reflection.KeyMicroExperiment)
	default:
		for _, key := range sortedKeys(v) {
			if items, ok := v.Strings(key); ok {
				out = append(out, Section{Title: titleCase(key), Items: items})
				continue
			}
			out = append(out, Section{Title: titleCase(key), Text: stringify(v[key])})
		}
	}
	return out
}

// ExportText formats v as a note body. The first line names the reflection
// and the subject it was generated for.
func ExportText(v reflection.Result, s shape.Shape, subjectTitle string) string {
	subjectTitle = strings.TrimSpace(subjectTitle)
	if subjectTitle == "" {
		subjectTitle = defaultSubjectTitle
	}

	var b strings.Builder
	switch s {
	case shape.Socratic:
		fmt.Fprintf(&b, "Socratic reflection on %q", subjectTitle)
		writeList(&b, "Questions", v, reflection.KeyQuestions)
		if action := nextActionExport(v); action != "" {
			writeLine(&b, "Next action: "+action)
		}
	case shape.Structured:
		fmt.Fprintf(&b, "Structured: %q", subjectTitle)
		writeText(&b, "Why it matters", v, reflection.KeyWhyItMatters)
		writeList(&b, "Assumptions", v, reflection.KeyAssumptions)
		writeList(&b, "Risks", v, reflection.KeyRisks)
		writeText(&b, "First step (30 min)", v, reflection.KeyFirstStep)
		writeText(&b, "Success metric", v, reflection.KeySuccessMetric)
	case shape.Weekly:
		fmt.Fprintf(&b, "Weekly review: %q", subjectTitle)
		writeList(&b, "Topics", v, reflection.KeyTopics)
		writeText(&b, "Belief to question", v, reflection.KeyBeliefToQuestion)
		writeText(&b, "Micro-experiment", v, reflection.KeyMicroExperiment)
	default:
		fmt.Fprintf(&b, "Reflection on %q\n", subjectTitle)
		for _, key := range sortedKeys(v) {
			value := stringify(v[key])
			if items, ok := v.Strings(key); ok {
				value = strings.Join(items, ", ")
			}
			fmt.Fprintf(&b, "\n• %s: %s", key, value)
		}
	}
	return strings.TrimSpace(b.String())
}

// DeriveTitle returns the first line of text, cut to MaxTitleLength runes.
func DeriveTitle(text string) string {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}
	if utf8.RuneCountInString(line) <= MaxTitleLength {
		return line
	}
	runes := []rune(line)
	return string(runes[:MaxTitleLength])
}

func nextAction(v reflection.Result) string {
	na, ok := v.Object(reflection.KeyNextAction)
	if !ok {
		return ""
	}
	text, _ := na.Text(reflection.KeyText)
	if deadline, ok := na.Text(reflection.KeyDeadline); ok && deadline != "" {
		if text == "" {
			return "Due " + deadline
		}
		return text + " (due " + deadline + ")"
	}
	return text
}

func nextActionExport(v reflection.Result) string {
	na, ok := v.Object(reflection.KeyNextAction)
	if !ok {
		return ""
	}
	text, _ := na.Text(reflection.KeyText)
	if deadline, ok := na.Text(reflection.KeyDeadline); ok && deadline != "" {
		return strings.TrimSpace(fmt.Sprintf("%s (deadline: %s)", text, deadline))
	}
	return text
}

func appendText(out []Section, title string, v reflection.Result, key string) []Section {
	if !v.NonEmptyText(key) {
		return out
	}
	text, _ := v.Text(key)
	return append(out, Section{Title: title, Text: text})
}

func appendList(out []Section, title string, v reflection.Result, key string) []Section {
	items, ok := v.Strings(key)
	if !ok || len(items) == 0 {
		return out
	}
	return append(out, Section{Title: title, Items: items})
}

func writeText(b *strings.Builder, label string, v reflection.Result, key string) {
	if !v.NonEmptyText(key) {
		return
	}
	text, _ := v.Text(key)
	writeLine(b, label+": "+text)
}

func writeList(b *strings.Builder, label string, v reflection.Result, key string) {
	items, ok := v.Strings(key)
	if !ok || len(items) == 0 {
		return
	}
	writeLine(b, label+":\n- "+strings.Join(items, "\n- "))
}

func writeLine(b *strings.Builder, s string) {
	b.WriteString("\n\n")
	b.WriteString(s)
}

func sortedKeys(v reflection.Result) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// A cases.Caser keeps state between calls, so each call gets its own.
func titleCase(key string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(key, "_", " "))
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, reflection.Result, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
