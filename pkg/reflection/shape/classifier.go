// Package shape classifies a reflection value into one of the recognized
// output shapes by field presence.
package shape

import "ai-notes-reflect/pkg/reflection"

// Shape is the classification tag of a reflection value.
type Shape string

const (
	Socratic     Shape = "socratic"
	Structured   Shape = "structured"
	Weekly       Shape = "weekly"
	Unclassified Shape = "unclassified"
)

func (s Shape) String() string { return string(s) }

// predicate pairs a shape with the field test that selects it. Order
// matters: shapes may overlap on fields and the first match wins.
type predicate struct {
	shape Shape
	match func(reflection.Result) bool
}

var predicates = []predicate{
	{Socratic, isSocratic},
	{Structured, isStructured},
	{Weekly, isWeekly},
}

// Classify returns the first shape whose predicate matches v, or
// Unclassified. A nil or malformed value is Unclassified.
func Classify(v reflection.Result) Shape {
	if len(v) == 0 {
		return Unclassified
	}
	for _, p := range predicates {
		if p.match(v) {
			return p.shape
		}
	}
	return Unclassified
}

func isSocratic(v reflection.Result) bool {
	if v.NonEmptyList(reflection.KeyQuestions) {
		return true
	}
	_, ok := v.Object(reflection.KeyNextAction)
	return ok
}

func isStructured(v reflection.Result) bool {
	return v.NonEmptyText(reflection.KeyWhyItMatters) ||
		v.NonEmptyList(reflection.KeyAssumptions) ||
		v.NonEmptyList(reflection.KeyRisks)
}

func isWeekly(v reflection.Result) bool {
	return v.NonEmptyList(reflection.KeyTopics) ||
		v.NonEmptyText(reflection.KeyBeliefToQuestion) ||
		v.NonEmptyText(reflection.KeyMicroExperiment)
}

// ForMode returns the shape a mode is expected to produce.
func ForMode(m reflection.Mode) Shape {
	switch m {
	case reflection.ModeSocratic:
		return Socratic
	case reflection.ModeStructured:
		return Structured
	case reflection.ModeWeekly:
		return Weekly
	default:
		return Unclassified
	}
}
