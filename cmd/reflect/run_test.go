package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"ai-notes-reflect/pkg/notesclient"
	"ai-notes-reflect/pkg/reflection"
	"ai-notes-reflect/pkg/reflection/shape"
	"ai-notes-reflect/pkg/reflection/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdNote struct {
	parentID, title, content string
}

type fakeNotes struct {
	title    string
	titleErr error
	created  []createdNote
}

func (f *fakeNotes) Title(ctx context.Context, subjectID string) (string, error) {
	return f.title, f.titleErr
}

func (f *fakeNotes) CreateChildNote(ctx context.Context, parentID, title, content string) (*notesclient.Note, error) {
	f.created = append(f.created, createdNote{parentID: parentID, title: title, content: content})
	return &notesclient.Note{Id: "sub-1", Title: title, Content: content, ParentId: &parentID}, nil
}

func TestExport(t *testing.T) {
	req := stream.Request{SubjectID: "n-1", Mode: reflection.ModeSocratic}

	tests := []struct {
		name        string
		outcome     stream.Outcome
		notes       *fakeNotes
		wantCreated bool
		contains    []string
		absent      []string
		output      []string
	}{
		{
			name: "final result",
			outcome: stream.Outcome{
				Request: req, State: stream.StateSucceeded, Shape: shape.Socratic,
				Final:   reflection.Result{"questions": []any{"Final?"}},
				Partial: reflection.Result{"questions": []any{"Partial?"}},
			},
			notes:       &fakeNotes{title: "Groceries"},
			wantCreated: true,
			contains:    []string{`Socratic reflection on "Groceries"`, "Final?"},
			absent:      []string{"Partial?"},
			output:      []string{"Saved as note sub-1"},
		},
		{
			name: "partial when final is missing",
			outcome: stream.Outcome{
				Request: req, State: stream.StateSucceeded, Shape: shape.Socratic, BackendError: "invalid_json",
				Partial: reflection.Result{"questions": []any{"Partial?"}},
			},
			notes:       &fakeNotes{title: "Groceries"},
			wantCreated: true,
			contains:    []string{`Socratic reflection on "Groceries"`, "Partial?"},
			output:      []string{"Saved as note sub-1"},
		},
		{
			name: "partial after failed fallback with unknown title",
			outcome: stream.Outcome{
				Request: req, State: stream.StateFallbackFailed, Shape: shape.Socratic, Err: errors.New("HTTP 500"),
				Partial: reflection.Result{"questions": []any{"Partial?"}},
			},
			notes:       &fakeNotes{titleErr: errors.New("HTTP 404")},
			wantCreated: true,
			contains:    []string{"Partial?"},
			output:      []string{"Could not look up the note title", "Saved as note sub-1"},
		},
		{
			name:    "nothing received",
			outcome: stream.Outcome{Request: req, State: stream.StateSucceeded, Raw: "garbage"},
			notes:   &fakeNotes{title: "Groceries"},
			output:  []string{"Nothing to export"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := export(context.Background(), newPrinter(&buf), tt.notes, tt.outcome)
			require.NoError(t, err)

			if !tt.wantCreated {
				assert.Empty(t, tt.notes.created)
			} else {
				require.Len(t, tt.notes.created, 1)
				got := tt.notes.created[0]
				assert.Equal(t, "n-1", got.parentID)
				assert.NotEmpty(t, got.title)
				for _, s := range tt.contains {
					assert.Contains(t, got.content, s)
				}
				for _, s := range tt.absent {
					assert.NotContains(t, got.content, s)
				}
			}
			for _, s := range tt.output {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}
