package main

import (
	"bytes"
	"errors"
	"testing"

	"ai-notes-reflect/pkg/reflection"
	"ai-notes-reflect/pkg/reflection/shape"
	"ai-notes-reflect/pkg/reflection/stream"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestPrinterOutcome(t *testing.T) {
	socratic := reflection.Result{
		"questions":   []any{"What is blocking you?", "Who could help?"},
		"next_action": "Write the outline",
	}

	tests := []struct {
		name     string
		outcome  stream.Outcome
		contains []string
		absent   []string
	}{
		{
			name:     "succeeded",
			outcome:  stream.Outcome{State: stream.StateSucceeded, Final: socratic, Shape: shape.Socratic},
			contains: []string{"Questions", "  • What is blocking you?", "Next action", "Write the outline"},
			absent:   []string{"classic result"},
		},
		{
			name:     "fallback succeeded",
			outcome:  stream.Outcome{State: stream.StateFallbackSucceeded, Final: socratic, Shape: shape.Socratic},
			contains: []string{"classic result", "Questions"},
		},
		{
			name:     "fallback failed",
			outcome:  stream.Outcome{State: stream.StateFallbackFailed, Err: errors.New("502 bad gateway")},
			contains: []string{"Reflection failed: 502 bad gateway"},
			absent:   []string{"Questions"},
		},
		{
			name: "fallback failed keeps partial",
			outcome: stream.Outcome{
				State: stream.StateFallbackFailed, Err: errors.New("HTTP 500"),
				Partial: reflection.Result{"questions": []any{"What is blocking you?"}}, Shape: shape.Socratic,
			},
			contains: []string{"Questions", "  • What is blocking you?", "Reflection failed: HTTP 500"},
		},
		{
			name:     "unresolved",
			outcome:  stream.Outcome{State: stream.StateSucceeded, Raw: "not json at all"},
			contains: []string{"could not be parsed", "not json at all"},
		},
		{
			name: "unresolved keeps partial",
			outcome: stream.Outcome{
				State: stream.StateSucceeded, Raw: `{"questions": ["Who could help?"], "next_action": "Wri`,
				Partial: reflection.Result{"questions": []any{"Who could help?"}}, Shape: shape.Socratic,
				BackendError: "invalid_json",
			},
			contains: []string{"Generator reported: invalid_json", "Questions", "  • Who could help?", "showing what was received"},
			absent:   []string{"Raw output", `"next_action": "Wri`},
		},
		{
			name: "cancelled keeps partial",
			outcome: stream.Outcome{
				State: stream.StateCancelled, Partial: reflection.Result{"summary": "Half a thought"}, Shape: shape.Unclassified,
			},
			contains: []string{"Summary", "Half a thought", "Cancelled."},
		},
		{
			name: "backend error",
			outcome: stream.Outcome{
				State: stream.StateSucceeded, Final: socratic, Shape: shape.Socratic,
				BackendError: "model overloaded",
			},
			contains: []string{"Generator reported: model overloaded", "Questions"},
		},
		{
			name:     "cancelled",
			outcome:  stream.Outcome{State: stream.StateCancelled},
			contains: []string{"Cancelled."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newPrinter(&buf).Outcome(tt.outcome)

			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestPrinterPartialIsClearedBeforeOutcome(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)

	p.Partial(stream.Update{Partial: reflection.Result{"questions": []any{"Why?"}}, Shape: shape.Socratic})
	assert.Contains(t, buf.String(), "[Questions]")

	buf.Reset()
	p.Outcome(stream.Outcome{State: stream.StateCancelled})
	assert.Equal(t, "\r\033[KCancelled.\n", buf.String())
}
