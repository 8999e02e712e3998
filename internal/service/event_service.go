package service

import (
	"context"

	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/pkg/events"
)

// IEventPublisher emits domain events. Failures are logged and never fail
// the request that raised the event.
type IEventPublisher interface {
	Emit(ctx context.Context, eventType string, data map[string]interface{})
}

type eventPublisher struct {
	publisher events.Publisher
	logger    logger.ILogger
}

// NewEventPublisher accepts a nil publisher, in which case events are dropped.
func NewEventPublisher(publisher events.Publisher, log logger.ILogger) IEventPublisher {
	return &eventPublisher{publisher: publisher, logger: log}
}

func (p *eventPublisher) Emit(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		p.logger.Warn("EventPublisher", "Failed to publish "+eventType, map[string]interface{}{"error": err.Error()})
	}
}
