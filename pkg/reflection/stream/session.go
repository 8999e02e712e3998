// Package stream runs one reflection generation at a time: it consumes the
// token stream of a Transport, publishes projected partial results while
// text arrives, converges to the exact result on completion and falls back
// to a single non-streaming call when the transport fails.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/reflection"
	"ai-notes-reflect/pkg/reflection/fallback"
	"ai-notes-reflect/pkg/reflection/projector"
	"ai-notes-reflect/pkg/reflection/shape"
)

const module = "StreamSession"

type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	// StateFallback is held while the fallback call is in flight.
	StateFallback          State = "fallback"
	StateSucceeded         State = "succeeded"
	StateFallbackSucceeded State = "failed_with_fallback_success"
	StateFallbackFailed    State = "failed_with_fallback_failure"
	StateCancelled         State = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFallbackSucceeded, StateFallbackFailed, StateCancelled:
		return true
	}
	return false
}

// Update is published after every chunk.
type Update struct {
	SessionID uint64
	Partial   reflection.Result
	Shape     shape.Shape
}

// Outcome is the terminal snapshot of a session.
type Outcome struct {
	SessionID uint64
	Request   Request
	State     State

	// Final is the exact result, or nil when none could be obtained.
	Final reflection.Result
	// Partial is the last projection published while streaming.
	Partial reflection.Result
	// Shape classifies Final, or Partial when Final is nil.
	Shape shape.Shape
	Raw   string

	// BackendError is the generation error reported in the done event.
	BackendError string
	// Err is the fallback failure, with the message the backend gave.
	Err error
}

// Unresolved reports a completed stream whose text never parsed.
func (o Outcome) Unresolved() bool {
	return o.State == StateSucceeded && o.Final == nil
}

// Config wires a session to its collaborators. OnPartial and OnTerminal run
// on the session goroutine, in order; they must return promptly.
type Config struct {
	Transport  Transport
	Invoker    fallback.Invoker
	Logger     logger.ILogger
	OnPartial  func(Update)
	OnTerminal func(Outcome)
}

// Handle controls a running session.
type Handle struct {
	id   uint64
	req  Request
	cfg  Config
	gate func(id uint64, fn func())

	mu      sync.Mutex
	state   State
	outcome Outcome

	// abort ends the session context, which the fallback call runs on; stop
	// only ends the transport.
	abort context.CancelFunc
	stop  context.CancelFunc
	done  chan struct{}

	// owned by the run goroutine
	buf     RawBuffer
	partial reflection.Result
}

var sessionSeq atomic.Uint64

// Start opens a standalone session. Use a Panel when sessions replace each
// other.
func Start(ctx context.Context, cfg Config, req Request) (*Handle, error) {
	return start(ctx, cfg, req, sessionSeq.Add(1), nil)
}

func start(ctx context.Context, cfg Config, req Request, id uint64, gate func(uint64, func())) (*Handle, error) {
	if cfg.Transport == nil {
		return nil, errors.New("stream: transport is required")
	}
	if cfg.Invoker == nil {
		return nil, errors.New("stream: fallback invoker is required")
	}
	if strings.TrimSpace(req.SubjectID) == "" {
		return nil, errors.New("stream: subject id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}

	sctx, abort := context.WithCancel(ctx)
	tctx, stop := context.WithCancel(sctx)
	h := &Handle{
		id:    id,
		req:   req,
		cfg:   cfg,
		gate:  gate,
		state: StateStreaming,
		abort: abort,
		stop:  stop,
		done:  make(chan struct{}),
	}

	cfg.Logger.Info(module, "Session started", map[string]interface{}{
		"session_id": id,
		"subject_id": req.SubjectID,
		"mode":       req.Mode,
	})

	go h.run(sctx, tctx)
	return h, nil
}

func (h *Handle) ID() uint64 { return h.id }

func (h *Handle) Request() Request { return h.req }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Cancel stops a streaming session without invoking the fallback. It
// reports false when the session had already left the streaming state.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	if h.state != StateStreaming {
		h.mu.Unlock()
		return false
	}
	h.state = StateCancelled
	h.mu.Unlock()

	h.stop()
	return true
}

// supersede ends the session whatever it is doing: a streaming session is
// cancelled and an in-flight fallback call is aborted.
func (h *Handle) supersede() {
	if !h.Cancel() {
		h.abort()
	}
}

// Done is closed once the session reached a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the session ends or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (h *Handle) run(parent, tctx context.Context) {
	defer close(h.done)
	defer h.abort()

	events, err := h.cfg.Transport.Open(tctx, h.req)
	if err != nil {
		h.fail(parent, fmt.Errorf("open transport: %w", err))
		return
	}

	for {
		select {
		case <-tctx.Done():
			h.finishCancelled()
			return
		case ev, ok := <-events:
			if h.State() != StateStreaming {
				h.finishCancelled()
				return
			}
			if !ok {
				h.fail(parent, ErrTransportClosed)
				return
			}
			switch ev.Kind {
			case EventChunk:
				h.applyChunk(ev.Delta)
			case EventDone:
				h.complete(ev)
				return
			case EventError:
				if ev.Err == nil {
					ev.Err = ErrTransportClosed
				}
				h.fail(parent, ev.Err)
				return
			default:
				h.cfg.Logger.Warn(module, "Unknown event ignored", map[string]interface{}{"session_id": h.id, "kind": ev.Kind})
			}
		}
	}
}

func (h *Handle) applyChunk(delta string) {
	if !h.buf.Append(delta) {
		return
	}
	h.partial = projector.Project(h.buf.String(), h.req.Mode)

	if h.cfg.OnPartial == nil || h.State() != StateStreaming {
		return
	}
	u := Update{SessionID: h.id, Partial: h.partial, Shape: shape.Classify(h.partial)}
	h.notify(func() { h.cfg.OnPartial(u) })
}

func (h *Handle) complete(ev Event) {
	h.stop()
	if !h.transition(StateStreaming, StateSucceeded) {
		h.finishCancelled()
		return
	}
	h.buf.Freeze()

	final := ev.Parsed
	if final == nil {
		text := ev.FullText
		if strings.TrimSpace(text) == "" {
			text = h.buf.String()
		}
		if r, err := reflection.ParseExact(projector.StripFences(text)); err == nil {
			final = r
		}
	}

	o := h.outcomeFor(StateSucceeded, final)
	o.BackendError = ev.Message
	if o.Unresolved() {
		h.cfg.Logger.Warn(module, "Stream completed without a parseable result", map[string]interface{}{
			"session_id":    h.id,
			"backend_error": ev.Message,
			"raw_length":    h.buf.Len(),
		})
	}
	h.finish(o)
}

// fail runs the fallback exactly once. The session goroutine blocks on it,
// so no other event is processed meanwhile. A failure caused by the session
// context ending is a cancellation and never reaches the fallback.
func (h *Handle) fail(parent context.Context, cause error) {
	h.stop()
	if parent.Err() != nil || !h.transition(StateStreaming, StateFallback) {
		h.finishCancelled()
		return
	}
	h.buf.Freeze()

	h.cfg.Logger.Warn(module, "Transport failed, invoking fallback", map[string]interface{}{
		"session_id": h.id,
		"error":      cause.Error(),
	})

	result, err := h.cfg.Invoker.Invoke(parent, h.req.SubjectID, h.req.Mode)
	if parent.Err() != nil {
		// superseded or cancelled by the caller while the call was in flight
		h.finishCancelled()
		return
	}
	if err != nil {
		h.cfg.Logger.Error(module, "Fallback failed", map[string]interface{}{"session_id": h.id, "error": err.Error()})
		o := h.outcomeFor(StateFallbackFailed, nil)
		o.Err = err
		h.finish(o)
		return
	}
	h.finish(h.outcomeFor(StateFallbackSucceeded, result))
}

func (h *Handle) finishCancelled() {
	h.buf.Freeze()
	o := h.outcomeFor(StateCancelled, nil)

	h.mu.Lock()
	h.state = StateCancelled
	h.outcome = o
	h.mu.Unlock()

	h.cfg.Logger.Info(module, "Session cancelled", map[string]interface{}{"session_id": h.id})
}

func (h *Handle) finish(o Outcome) {
	h.mu.Lock()
	h.state = o.State
	h.outcome = o
	h.mu.Unlock()

	h.cfg.Logger.Info(module, "Session finished", map[string]interface{}{
		"session_id": h.id,
		"state":      o.State,
		"shape":      o.Shape,
	})

	if h.cfg.OnTerminal != nil {
		h.notify(func() { h.cfg.OnTerminal(o) })
	}
}

func (h *Handle) transition(from, to State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != from {
		return false
	}
	h.state = to
	return true
}

func (h *Handle) outcomeFor(state State, final reflection.Result) Outcome {
	s := shape.Classify(final)
	if final == nil {
		s = shape.Classify(h.partial)
	}
	return Outcome{
		SessionID: h.id,
		Request:   h.req,
		State:     state,
		Final:     final,
		Partial:   h.partial,
		Shape:     s,
		Raw:       h.buf.String(),
	}
}

func (h *Handle) notify(fn func()) {
	if h.gate != nil {
		h.gate(h.id, fn)
		return
	}
	fn()
}
