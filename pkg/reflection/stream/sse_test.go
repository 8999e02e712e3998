package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-notes-reflect/pkg/reflection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("event channel not closed")
			return out
		}
	}
}

func TestSSETransportReadsChunksAndDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/reflect/stream", r.URL.Path)
		assert.Equal(t, "n-1", r.URL.Query().Get("note_id"))
		assert.Equal(t, "weekly", r.URL.Query().Get("mode"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "event: chunk\ndata: {\"type\":\"chunk\",\"delta\":\"{\\\"topics\\\": \"}\n\n")
		fmt.Fprint(w, "event: chunk\ndata: not json\n\n")
		fmt.Fprint(w, "data: {\"type\":\"chunk\",\"delta\":\"[\\\"focus\\\"]}\"}\n\n")
		fmt.Fprint(w, "event: done\ndata: {\"type\":\"done\",\"full_text\":\"{\\\"topics\\\": [\\\"focus\\\"]}\",\"parsed\":{\"topics\":[\"focus\"]},\"error\":null}\n\n")
		fmt.Fprint(w, "event: chunk\ndata: {\"type\":\"chunk\",\"delta\":\"after done\"}\n\n")
	}))
	defer srv.Close()

	tr := NewSSETransport(srv.URL, "tok", nil)
	ch, err := tr.Open(context.Background(), Request{SubjectID: "n-1", Mode: reflection.ModeWeekly})
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 3)
	assert.Equal(t, Event{Kind: EventChunk, Delta: `{"topics": `}, events[0])
	assert.Equal(t, Event{Kind: EventChunk, Delta: `["focus"]}`}, events[1])
	assert.Equal(t, EventDone, events[2].Kind)
	assert.Equal(t, `{"topics": ["focus"]}`, events[2].FullText)
	assert.Equal(t, reflection.Result{"topics": []any{"focus"}}, events[2].Parsed)
	assert.Empty(t, events[2].Message)
}

func TestSSETransportMalformedDoneIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: done\ndata: {broken\n\n")
	}))
	defer srv.Close()

	ch, err := NewSSETransport(srv.URL, "", nil).Open(context.Background(), Request{SubjectID: "n-1", Mode: reflection.ModeGeneral})
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
	assert.Error(t, events[0].Err)
}

func TestSSETransportEndWithoutDoneClosesChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: chunk\ndata: {\"delta\":\"x\"}\n\n")
	}))
	defer srv.Close()

	ch, err := NewSSETransport(srv.URL, "", nil).Open(context.Background(), Request{SubjectID: "n-1", Mode: reflection.ModeGeneral})
	require.NoError(t, err)

	events := collect(t, ch)
	assert.Equal(t, []Event{{Kind: EventChunk, Delta: "x"}}, events)
}

func TestSSETransportDeliversFrameEndingAtEOF(t *testing.T) {
	cases := []struct {
		name string
		tail string
		want Event
	}{
		{
			name: "done without blank line",
			tail: "event: done\ndata: {\"full_text\":\"{\\\"summary\\\":\\\"ok\\\"}\",\"parsed\":{\"summary\":\"ok\"}}\n",
			want: Event{Kind: EventDone, FullText: `{"summary":"ok"}`, Parsed: reflection.Result{"summary": "ok"}},
		},
		{
			name: "done without trailing newline",
			tail: "event: done\ndata: {\"full_text\":\"\",\"parsed\":{\"summary\":\"ok\"}}",
			want: Event{Kind: EventDone, Parsed: reflection.Result{"summary": "ok"}},
		},
		{
			name: "chunk without blank line",
			tail: "event: chunk\ndata: {\"delta\":\"y\"}",
			want: Event{Kind: EventChunk, Delta: "y"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "event: chunk\ndata: {\"delta\":\"x\"}\n\n")
				fmt.Fprint(w, tc.tail)
			}))
			defer srv.Close()

			ch, err := NewSSETransport(srv.URL, "", nil).Open(context.Background(), Request{SubjectID: "n-1", Mode: reflection.ModeGeneral})
			require.NoError(t, err)

			events := collect(t, ch)
			require.Len(t, events, 2)
			assert.Equal(t, Event{Kind: EventChunk, Delta: "x"}, events[0])
			assert.Equal(t, tc.want, events[1])
		})
	}
}

func TestSSETransportSessionSucceedsOnUnterminatedDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: chunk\ndata: {\"delta\":\"{\\\"summary\\\":\\\"ok\\\"}\"}\n\n")
		fmt.Fprint(w, "event: done\ndata: {\"full_text\":\"{\\\"summary\\\":\\\"ok\\\"}\"}")
	}))
	defer srv.Close()

	inv := &fakeInvoker{}
	h, err := Start(context.Background(), Config{Transport: NewSSETransport(srv.URL, "", nil), Invoker: inv},
		Request{SubjectID: "n-1", Mode: reflection.ModeGeneral})
	require.NoError(t, err)

	o := wait(t, h)
	assert.Equal(t, StateSucceeded, o.State)
	assert.Equal(t, reflection.Result{"summary": "ok"}, o.Final)
	assert.Equal(t, 0, inv.Calls())
}

func TestSSETransportRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"code":404,"detail":"Note not found"}`)
	}))
	defer srv.Close()

	_, err := NewSSETransport(srv.URL, "", nil).Open(context.Background(), Request{SubjectID: "n-1", Mode: reflection.ModeGeneral})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestSSETransportWithSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: chunk\ndata: {\"delta\":\"{\\\"summary\\\":\"}\n\n")
		fmt.Fprint(w, "event: chunk\ndata: {\"delta\":\"\\\"ok\\\"}\"}\n\n")
		fmt.Fprint(w, "event: done\ndata: {\"full_text\":\"{\\\"summary\\\":\\\"ok\\\"}\",\"parsed\":null,\"error\":null}\n\n")
	}))
	defer srv.Close()

	inv := &fakeInvoker{}
	h, err := Start(context.Background(), Config{Transport: NewSSETransport(srv.URL, "", nil), Invoker: inv},
		Request{SubjectID: "n-1", Mode: reflection.ModeGeneral})
	require.NoError(t, err)

	o := wait(t, h)
	assert.Equal(t, StateSucceeded, o.State)
	assert.Equal(t, reflection.Result{"summary": "ok"}, o.Final)
	assert.Equal(t, `{"summary":"ok"}`, o.Raw)
	assert.Equal(t, 0, inv.Calls())
}
