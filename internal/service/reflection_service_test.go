package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/events"
	"ai-notes-reflect/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReflectionService(st *store, p *stubProvider, pub IEventPublisher, fallbackModel string) IReflectionService {
	return NewReflectionService(st, p, pub, ReflectionSettings{Temperature: 0.2, FallbackModel: fallbackModel}, logger.NewNopLogger())
}

func collect(t *testing.T, run StreamRunner) []dto.StreamEvent {
	t.Helper()
	var got []dto.StreamEvent
	require.NoError(t, run(context.Background(), func(ev dto.StreamEvent) error {
		got = append(got, ev)
		return nil
	}))
	return got
}

func TestReflect(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	pub := &recordingPublisher{}
	note := st.addNote("t", "I want to learn Go", nil)

	p := &stubProvider{chatText: "```json\n{\"topics\":[\"go\"],\"belief_to_question\":\"b\",\"micro_experiment\":\"m\"}\n```"}
	svc := newReflectionService(st, p, pub, "")

	res, err := svc.Reflect(ctx, &dto.ReflectRequest{NoteId: note.Id, Mode: "semanal"})
	require.NoError(t, err)
	assert.Equal(t, "weekly", res.Mode)
	assert.Equal(t, []any{"go"}, res.ResultJson["topics"])
	require.Len(t, st.reflections, 1)
	assert.Equal(t, SourceClassic, st.reflections[0].Source)
	assert.Equal(t, []string{events.ReflectionCompleted}, pub.types())

	listed, err := svc.ListByNote(ctx, note.Id)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestReflectFlattensRichTextNotes(t *testing.T) {
	st := newStore()
	note := st.addNote("t", `{"root":{"type":"root","children":[{"type":"paragraph","children":[{"type":"text","text":"Launch the beta"}]}]}}`, nil)

	p := &stubProvider{chatText: `{"questions":["q"],"next_action":"a"}`}
	svc := newReflectionService(st, p, &recordingPublisher{}, "")

	_, err := svc.Reflect(context.Background(), &dto.ReflectRequest{NoteId: note.Id, Mode: "socratic"})
	require.NoError(t, err)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Launch the beta")
	assert.NotContains(t, p.prompts[0], `"root"`)
}

func TestReflectErrors(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	note := st.addNote("t", "c", nil)

	tests := []struct {
		name   string
		noteId uuid.UUID
		p      *stubProvider
		status int
	}{
		{"missing note", uuid.New(), &stubProvider{}, http.StatusNotFound},
		{"provider error", note.Id, &stubProvider{chatErr: errors.New("circuit open")}, http.StatusBadGateway},
		{"invalid json", note.Id, &stubProvider{chatText: "{\"questions\": ["}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newReflectionService(st, tt.p, &recordingPublisher{}, "")
			_, err := svc.Reflect(ctx, &dto.ReflectRequest{NoteId: tt.noteId, Mode: "socratic"})
			requireStatus(t, err, tt.status)
		})
	}
	assert.Empty(t, st.reflections)
}

func TestStreamPrimary(t *testing.T) {
	st := newStore()
	note := st.addNote("t", "c", nil)
	p := &stubProvider{streams: map[string][]llm.StreamDelta{
		"": {{Content: `{"questions":["a?"],`}, {Content: `"next_action":{"text":"do"}}`}, {Done: true}},
	}}
	pub := &recordingPublisher{}
	svc := newReflectionService(st, p, pub, "backup")

	run, err := svc.OpenStream(context.Background(), &dto.StreamReflectionRequest{NoteId: note.Id, Mode: "socratic"})
	require.NoError(t, err)
	got := collect(t, run)

	require.Len(t, got, 3)
	assert.Equal(t, "chunk", got[0].Type)
	assert.Equal(t, `{"questions":["a?"],`, got[0].Delta)
	done := got[2]
	assert.Equal(t, "done", done.Type)
	assert.Empty(t, done.Error)
	assert.Equal(t, []any{"a?"}, done.Parsed["questions"])

	require.Len(t, st.reflections, 1)
	assert.Equal(t, SourceStream, st.reflections[0].Source)
	assert.Equal(t, []string{""}, p.models)
	assert.Equal(t, []string{events.ReflectionCompleted}, pub.types())
}

func TestStreamFallsBackWhenPrimaryCannotOpen(t *testing.T) {
	st := newStore()
	note := st.addNote("t", "c", nil)
	p := &stubProvider{
		openErrs: map[string]error{"": errors.New("connection refused")},
		streams:  map[string][]llm.StreamDelta{"backup": {{Content: `{"summary":"s"}`}, {Done: true}}},
	}
	svc := newReflectionService(st, p, &recordingPublisher{}, "backup")

	run, err := svc.OpenStream(context.Background(), &dto.StreamReflectionRequest{NoteId: note.Id, Mode: "other"})
	require.NoError(t, err)
	got := collect(t, run)

	assert.Equal(t, []string{"", "backup"}, p.models)
	require.Len(t, got, 2)
	assert.Equal(t, "s", got[1].Parsed["summary"])
	assert.Equal(t, "general", st.reflections[0].Mode)
}

func TestStreamDoneErrors(t *testing.T) {
	tests := []struct {
		name     string
		p        *stubProvider
		fallback string
		wantErr  string
		wantText string
	}{
		{
			name: "both fail",
			p: &stubProvider{openErrs: map[string]error{
				"":       errors.New("down"),
				"backup": errors.New("also down"),
			}},
			fallback: "backup",
			wantErr:  "primary_stream_failed: down; fallback_stream_failed: also down",
		},
		{
			name:    "no fallback configured",
			p:       &stubProvider{openErrs: map[string]error{"": errors.New("down")}},
			wantErr: "primary_stream_failed: down",
		},
		{
			name:     "invalid json",
			p:        &stubProvider{streams: map[string][]llm.StreamDelta{"": {{Content: " not json "}, {Done: true}}}},
			wantErr:  "invalid_json",
			wantText: "not json",
		},
		{
			name:     "mid stream error",
			p:        &stubProvider{streams: map[string][]llm.StreamDelta{"": {{Content: `{"summ`}, {Err: errors.New("reset")}}}},
			wantErr:  "reset",
			wantText: `{"summ`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStore()
			note := st.addNote("t", "c", nil)
			svc := newReflectionService(st, tt.p, &recordingPublisher{}, tt.fallback)

			run, err := svc.OpenStream(context.Background(), &dto.StreamReflectionRequest{NoteId: note.Id, Mode: "general"})
			require.NoError(t, err)
			got := collect(t, run)

			done := got[len(got)-1]
			assert.Equal(t, "done", done.Type)
			assert.Equal(t, tt.wantErr, done.Error)
			assert.Equal(t, tt.wantText, done.FullText)
			assert.Nil(t, done.Parsed)
			assert.Empty(t, st.reflections)
		})
	}
}

func TestStreamStopsWhenClientLeaves(t *testing.T) {
	st := newStore()
	note := st.addNote("t", "c", nil)
	p := &stubProvider{streams: map[string][]llm.StreamDelta{"": {{Content: "a"}, {Content: "b"}, {Done: true}}}}
	svc := newReflectionService(st, p, &recordingPublisher{}, "")

	run, err := svc.OpenStream(context.Background(), &dto.StreamReflectionRequest{NoteId: note.Id, Mode: "general"})
	require.NoError(t, err)

	gone := errors.New("broken pipe")
	calls := 0
	err = run(context.Background(), func(ev dto.StreamEvent) error {
		calls++
		return gone
	})
	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 1, calls)
}

func TestOpenStreamMissingNote(t *testing.T) {
	svc := newReflectionService(newStore(), &stubProvider{}, &recordingPublisher{}, "")
	_, err := svc.OpenStream(context.Background(), &dto.StreamReflectionRequest{NoteId: uuid.New(), Mode: "general"})
	requireStatus(t, err, http.StatusNotFound)
}
