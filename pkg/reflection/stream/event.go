package stream

import (
	"context"
	"errors"

	"ai-notes-reflect/pkg/reflection"
)

// ErrTransportClosed is reported when the event channel closes before a
// done event arrives.
var ErrTransportClosed = errors.New("stream: transport closed before completion")

// Request identifies one generation. It does not change once a session
// starts.
type Request struct {
	SubjectID string
	Mode      reflection.Mode
}

type EventKind string

const (
	EventChunk EventKind = "chunk"
	EventDone  EventKind = "done"
	EventError EventKind = "error"
)

// Event is one message from a Transport.
type Event struct {
	Kind EventKind

	// chunk
	Delta string

	// done
	FullText string
	Parsed   reflection.Result
	Message  string // generation error reported by the backend, e.g. invalid_json

	// error
	Err error
}

// Transport opens the event stream of a generation. The returned channel
// must stop delivering and close once ctx is cancelled.
type Transport interface {
	Open(ctx context.Context, req Request) (<-chan Event, error)
}
