package service

import (
	"context"
	"encoding/json"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "TelemetryConsumer"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService counts API calls published on the telemetry topic.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ApiCallMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Event == "" {
		cs.logger.Warn(consumerModule, "Dropping malformed telemetry message", map[string]interface{}{"uuid": msg.UUID})
		msg.Ack() // retrying cannot fix the payload
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.MetricRepository().Increment(ctx, payload.Event); err != nil {
		cs.logger.Error(consumerModule, "Failed to increment metric", map[string]interface{}{"event": payload.Event, "error": err.Error()})
		msg.Nack()
		return
	}
	msg.Ack()
}
