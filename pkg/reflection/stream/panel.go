package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

// Panel owns at most one active session. Starting a session cancels the
// previous one, and notifications of a superseded session are dropped.
//
// Callbacks run while the panel holds its delivery lock, so they must not
// call Start on the same panel synchronously.
type Panel struct {
	cfg Config

	generation atomic.Uint64
	deliverMu  sync.Mutex

	mu     sync.Mutex
	active *Handle
}

func NewPanel(cfg Config) *Panel {
	return &Panel{cfg: cfg}
}

// Start cancels the active session, if any, aborting its fallback call when
// one is in flight, and starts a new one tagged with the next generation
// number. Once Start returns no notification of an earlier session is
// delivered.
func (p *Panel) Start(ctx context.Context, req Request) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		p.active.supersede()
		p.active = nil
	}

	p.deliverMu.Lock()
	id := p.generation.Add(1)
	p.deliverMu.Unlock()

	h, err := start(ctx, p.cfg, req, id, p.deliver)
	if err != nil {
		return nil, err
	}
	p.active = h
	return h, nil
}

// Cancel cancels the active session. It reports false when there is none
// or it already left the streaming state.
func (p *Panel) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return false
	}
	return p.active.Cancel()
}

// Active returns the current session, or nil.
func (p *Panel) Active() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Generation is the id of the most recently started session.
func (p *Panel) Generation() uint64 { return p.generation.Load() }

func (p *Panel) deliver(id uint64, fn func()) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if p.generation.Load() != id {
		return
	}
	fn()
}
