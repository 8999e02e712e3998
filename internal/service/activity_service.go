package service

import (
	"context"

	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/internal/repository/unitofwork"
	"ai-notes-reflect/pkg/events"
	pktNats "ai-notes-reflect/pkg/nats"
)

const (
	activityModule  = "ActivityService"
	activityDurable = "activity-metrics-worker"
	// domain event counters live next to the API call counters
	activityMetricPrefix = "EVENT_"
)

// EventSubscriber is satisfied by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// ActivityService counts every domain event seen on the bus.
type ActivityService struct {
	subscriber EventSubscriber
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewActivityService(sub EventSubscriber, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *ActivityService {
	return &ActivityService{
		subscriber: sub,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *ActivityService) Start(ctx context.Context) {
	if s.subscriber == nil {
		s.logger.Warn(activityModule, "No event subscriber, domain events are not counted", nil)
		return
	}
	if err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", activityDurable, s.handleEvent); err != nil {
		s.logger.Error(activityModule, "Failed to start activity subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info(activityModule, "Activity service started", nil)
}

func (s *ActivityService) handleEvent(ctx context.Context, event events.Event) error {
	s.logger.Debug(activityModule, "Processing event", map[string]interface{}{"type": event.EventType()})
	return s.uowFactory.NewUnitOfWork(ctx).MetricRepository().Increment(ctx, activityMetricPrefix+event.EventType())
}
