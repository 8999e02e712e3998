// Package projector turns the cumulative text of an in-progress generation
// into the best structured snapshot available so far.
//
// An exact JSON parse always wins. While the document is still incomplete
// the projector falls back to scraping the fields the requested mode is
// expected to produce. Scraping may under-report (an element still being
// typed is left out) but never invents content, and never fails.
package projector

import (
	"ai-notes-reflect/pkg/reflection"
)

// fieldSet lists the scalar and list fields scraped for a mode.
type fieldSet struct {
	scalars []string
	lists   []string
}

var modeFields = map[reflection.Mode]fieldSet{
	reflection.ModeSocratic: {
		lists: []string{reflection.KeyQuestions},
	},
	reflection.ModeStructured: {
		scalars: []string{reflection.KeyWhyItMatters, reflection.KeyFirstStep, reflection.KeySuccessMetric},
		lists:   []string{reflection.KeyAssumptions, reflection.KeyRisks},
	},
	reflection.ModeWeekly: {
		scalars: []string{reflection.KeyBeliefToQuestion, reflection.KeyMicroExperiment},
		lists:   []string{reflection.KeyTopics},
	},
	reflection.ModeGeneral: {
		scalars: []string{reflection.KeySummary},
		lists:   []string{reflection.KeyInsights, reflection.KeyActions},
	},
}

// Project returns the best-effort snapshot of raw for mode. It is a pure
// function of its arguments.
func Project(raw string, mode reflection.Mode) reflection.Result {
	text := StripFences(raw)
	if exact, err := reflection.ParseExact(text); err == nil {
		return exact
	}
	return extract(text, mode)
}

func extract(text string, mode reflection.Mode) reflection.Result {
	fields, ok := modeFields[mode]
	if !ok {
		fields = modeFields[reflection.ModeGeneral]
	}

	out := reflection.Result{}
	for _, key := range fields.scalars {
		if v, ok := extractScalar(text, key); ok && v != "" {
			out[key] = v
		}
	}
	for _, key := range fields.lists {
		if items, ok := extractList(text, key); ok && len(items) > 0 {
			list := make([]any, len(items))
			for i, s := range items {
				list[i] = s
			}
			out[key] = list
		}
	}
	if mode == reflection.ModeSocratic {
		if na := extractNextAction(text); na != nil {
			out[reflection.KeyNextAction] = na
		}
	}
	return out
}

// extractNextAction tries the nested shape first and then the flattened
// shapes some models emit instead.
func extractNextAction(text string) map[string]any {
	var actionText, deadline string

	if obj, ok := extractObject(text, reflection.KeyNextAction); ok {
		actionText, _ = extractScalar(obj, reflection.KeyText)
		deadline, _ = extractScalar(obj, reflection.KeyDeadline)
	}
	if actionText == "" {
		actionText, _ = extractScalar(text, reflection.KeyNextAction+"."+reflection.KeyText)
	}
	if actionText == "" {
		actionText, _ = extractScalar(text, reflection.KeyNextAction)
	}
	if deadline == "" {
		deadline, _ = extractScalar(text, reflection.KeyNextAction+"."+reflection.KeyDeadline)
	}

	if actionText == "" {
		return nil
	}
	na := map[string]any{reflection.KeyText: actionText}
	if deadline != "" {
		na[reflection.KeyDeadline] = deadline
	}
	return na
}
