// Package prompt builds the generation prompt for each reflection mode.
// Every prompt demands a bare JSON object with the mode's keys.
package prompt

import (
	"fmt"
	"strings"

	"ai-notes-reflect/pkg/reflection"
)

const guard = "Return ONLY valid JSON (no markdown, no comments) with exactly the keys of the schema below. " +
	"Be concrete and avoid vague statements; bring nuance, counter-examples and practical examples. " +
	"Do not invent personal data."

type template struct {
	name         string
	goal         string
	instructions []string
	schema       string
}

var templates = map[reflection.Mode]template{
	reflection.ModeSocratic: {
		name: "SOCRATIC",
		goal: "help the user examine and expand their idea from several angles.",
		instructions: []string{
			"Ask 3 to 6 Socratic questions exploring assumptions, consequences, alternatives and counter-arguments.",
			"Avoid trivial questions; look for depth and different perspectives.",
			"Propose ONE short, realistic next action (with a suggested ISO YYYY-MM-DD deadline when it applies).",
			"If the note is vague, aim the questions at making it concrete.",
		},
		schema: `{
  "questions": [string, ...],
  "next_action": {"text": string, "deadline": string | null}
}`,
	},
	reflection.ModeStructured: {
		name: "STRUCTURED",
		goal: "analyze and extend the idea with critical thinking and an actionable plan.",
		instructions: []string{
			"Explain why this idea matters (impact and value).",
			"List 3 to 6 implicit assumptions that might not hold.",
			"List 2 to 5 risks or obstacles, each with a short nuance or counter-example.",
			"Propose a first step that can be done in about 30 minutes.",
			"Define an observable success metric.",
		},
		schema: `{
  "why_it_matters": string,
  "assumptions": [string, ...],
  "risks": [string, ...],
  "first_step_30min": string,
  "success_metric": string
}`,
	},
	reflection.ModeWeekly: {
		name: "WEEKLY",
		goal: "review the week and widen the perspective for the next one.",
		instructions: []string{
			"Extract 3 to 6 relevant topics emerging from the text (habits, emotions, patterns).",
			"Point out one belief to question (a bias or rigid statement) with an alternative angle.",
			"Propose a simple micro-experiment for next week that explores a different nuance.",
		},
		schema: `{
  "topics": [string, ...],
  "belief_to_question": string,
  "micro_experiment": string
}`,
	},
	reflection.ModeGeneral: {
		name: "GENERAL",
		goal: "summarize and extend the idea with nuance, alternatives and actions.",
		instructions: []string{
			"Write a 1 to 2 sentence summary with the main nuance.",
			"Offer 3 to 6 varied insights (include at least one counterpoint).",
			"Propose 2 to 4 specific, realistic actions.",
		},
		schema: `{
  "summary": string,
  "insights": [string, ...],
  "actions": [string, ...]
}`,
	},
}

// Build returns the prompt for noteText under mode. Unknown modes use the
// general template.
func Build(noteText string, mode reflection.Mode) string {
	t, ok := templates[mode]
	if !ok {
		t = templates[reflection.ModeGeneral]
	}

	var b strings.Builder
	b.WriteString(guard)
	fmt.Fprintf(&b, "\nMode: %s.\nGoal: %s\nInstructions:\n", t.name, t.goal)
	for _, line := range t.instructions {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nNote text:\n\"\"\"%s\"\"\"\n\nOutput JSON schema:\n%s", strings.TrimSpace(noteText), t.schema)
	return b.String()
}
