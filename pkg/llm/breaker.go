package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-notes-reflect/internal/pkg/logger"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
)

// BreakerSettings tunes CircuitBreakerProvider. Zero values use defaults.
type BreakerSettings struct {
	MaxFailures uint32
	Timeout     time.Duration // open -> half-open
	Interval    time.Duration // closed-state count reset period
}

// CircuitBreakerProvider fails fast once the wrapped provider keeps
// failing, until a trial call after Timeout succeeds.
type CircuitBreakerProvider struct {
	inner   LLMProvider
	breaker *gobreaker.CircuitBreaker[string]
}

var _ LLMProvider = &CircuitBreakerProvider{}

func NewCircuitBreakerProvider(inner LLMProvider, s BreakerSettings, log logger.ILogger) *CircuitBreakerProvider {
	if s.MaxFailures == 0 {
		s.MaxFailures = defaultBreakerMaxFailures
	}
	if s.Timeout == 0 {
		s.Timeout = defaultBreakerTimeout
	}
	if s.Interval == 0 {
		s.Interval = defaultBreakerInterval
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:" + inner.Name(),
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("LLMBreaker", "Circuit breaker state change", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		// Cancellation by the caller says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &CircuitBreakerProvider{inner: inner, breaker: cb}
}

func (p *CircuitBreakerProvider) Name() string { return p.inner.Name() }

func (p *CircuitBreakerProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	out, err := p.breaker.Execute(func() (string, error) {
		return p.inner.Chat(ctx, history, options...)
	})
	return out, p.wrap(err)
}

func (p *CircuitBreakerProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}

// ChatStream guards opening the stream only. Errors delivered later through
// the channel do not count against the breaker.
func (p *CircuitBreakerProvider) ChatStream(ctx context.Context, history []Message, options ...Option) (<-chan StreamDelta, error) {
	var ch <-chan StreamDelta
	_, err := p.breaker.Execute(func() (string, error) {
		var openErr error
		ch, openErr = p.inner.ChatStream(ctx, history, options...)
		return "", openErr
	})
	if err != nil {
		return nil, p.wrap(err)
	}
	return ch, nil
}

func (p *CircuitBreakerProvider) State() gobreaker.State { return p.breaker.State() }

func (p *CircuitBreakerProvider) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("provider %q circuit open: %w", p.inner.Name(), err)
	}
	return err
}
