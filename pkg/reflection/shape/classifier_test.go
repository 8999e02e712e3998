package shape

import (
	"testing"

	"ai-notes-reflect/pkg/reflection"
	"ai-notes-reflect/pkg/reflection/projector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value reflection.Result
		want  Shape
	}{
		{"nil", nil, Unclassified},
		{"empty", reflection.Result{}, Unclassified},
		{"questions", reflection.Result{"questions": []any{"q"}}, Socratic},
		{"empty questions only", reflection.Result{"questions": []any{}}, Unclassified},
		{"next action only", reflection.Result{"next_action": map[string]any{"text": "do"}}, Socratic},
		{"next action not an object", reflection.Result{"next_action": "do"}, Unclassified},
		{"why it matters", reflection.Result{"why_it_matters": "impact"}, Structured},
		{"assumptions", reflection.Result{"assumptions": []any{"a"}}, Structured},
		{"risks typed slice", reflection.Result{"risks": []string{"r"}}, Structured},
		{"first step alone is not enough", reflection.Result{"first_step_30min": "x"}, Unclassified},
		{"topics", reflection.Result{"topics": []any{"focus"}}, Weekly},
		{"belief", reflection.Result{"belief_to_question": "b"}, Weekly},
		{"micro experiment", reflection.Result{"micro_experiment": "m"}, Weekly},
		{"blank belief", reflection.Result{"belief_to_question": "  "}, Unclassified},
		{"general", reflection.Result{"summary": "s", "insights": []any{"i"}}, Unclassified},
		{
			"socratic wins over structured",
			reflection.Result{"questions": []any{"q"}, "risks": []any{"r"}},
			Socratic,
		},
		{
			"structured wins over weekly",
			reflection.Result{"assumptions": []any{"a"}, "topics": []any{"t"}},
			Structured,
		},
		{"malformed types", reflection.Result{"questions": 42, "topics": map[string]any{}}, Unclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value))
		})
	}
}

func TestClassifyWeeklyScenario(t *testing.T) {
	final, err := reflection.ParseExact(`{"topics": ["focus"], "belief_to_question": "I must finish everything"}`)
	require.NoError(t, err)

	assert.Equal(t, Weekly, Classify(final))
}

func TestClassifyFencedGeneralScenario(t *testing.T) {
	got := projector.Project("```json\n{\"summary\":\"ok\"}\n```", reflection.ModeGeneral)

	assert.Equal(t, Unclassified, Classify(got))
}

// Keeping only the fields that decided the shape must not change it.
func TestClassifyIsIdempotent(t *testing.T) {
	values := []reflection.Result{
		{"questions": []any{"q"}, "next_action": map[string]any{"text": "t"}, "topics": []any{"x"}},
		{"why_it_matters": "w", "risks": []any{"r"}, "micro_experiment": "m"},
		{"topics": []any{"t"}, "summary": "s"},
		{"summary": "s"},
	}

	for _, v := range values {
		first := Classify(v)
		again := Classify(reconstruct(v, first))
		assert.Equal(t, first, again, "value %v", v)
		assert.Equal(t, first, Classify(v))
	}
}

func reconstruct(v reflection.Result, s Shape) reflection.Result {
	keys := map[Shape][]string{
		Socratic:   {reflection.KeyQuestions, reflection.KeyNextAction},
		Structured: {reflection.KeyWhyItMatters, reflection.KeyAssumptions, reflection.KeyRisks, reflection.KeyFirstStep, reflection.KeySuccessMetric},
		Weekly:     {reflection.KeyTopics, reflection.KeyBeliefToQuestion, reflection.KeyMicroExperiment},
	}
	fields, ok := keys[s]
	if !ok {
		return v
	}
	out := reflection.Result{}
	for _, k := range fields {
		if val, ok := v[k]; ok {
			out[k] = val
		}
	}
	return out
}

func TestForMode(t *testing.T) {
	assert.Equal(t, Socratic, ForMode(reflection.ModeSocratic))
	assert.Equal(t, Structured, ForMode(reflection.ModeStructured))
	assert.Equal(t, Weekly, ForMode(reflection.ModeWeekly))
	assert.Equal(t, Unclassified, ForMode(reflection.ModeGeneral))
}
