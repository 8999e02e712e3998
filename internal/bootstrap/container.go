package bootstrap

import (
	"context"
	"time"

	"ai-notes-reflect/internal/config"
	"ai-notes-reflect/internal/controller"
	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/internal/repository/unitofwork"
	"ai-notes-reflect/internal/service"
	internalWS "ai-notes-reflect/internal/websocket"
	"ai-notes-reflect/pkg/events"
	"ai-notes-reflect/pkg/llm"
	"ai-notes-reflect/pkg/llm/factory"
	pktNats "ai-notes-reflect/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const containerModule = "Bootstrap"

type Container struct {
	Logger logger.ILogger

	// Controllers
	FolderController     controller.IFolderController
	NoteController       controller.INoteController
	ReflectionController controller.IReflectionController
	MetricController     controller.IMetricController
	EventFeedController  controller.IEventFeedController

	// Background services, started by main
	PublisherService service.IPublisherService
	ConsumerService  service.IConsumerService
	ActivityService  *service.ActivityService
	Hub              *internalWS.Hub

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// In-process bus for API call telemetry
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)

	closers := []func(){func() { _ = pubSub.Close() }}

	// Redis is optional: without it the event feed only reaches clients of
	// this instance
	rdb := newRedisClient(cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		closers = append(closers, func() { _ = rdb.Close() })
	}
	hub := internalWS.NewHub(rdb, sysLogger)

	// NATS is optional: without it domain events only reach the feed
	var (
		eventBus   = events.Fanout{hub}
		subscriber service.EventSubscriber
	)
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger); err != nil {
		sysLogger.Warn(containerModule, "Failed to connect to NATS publisher", map[string]interface{}{"error": err.Error()})
	} else {
		eventBus = append(eventBus, natsPub)
		closers = append(closers, natsPub.Close)
	}
	if natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger); err != nil {
		sysLogger.Warn(containerModule, "Failed to connect to NATS subscriber", map[string]interface{}{"error": err.Error()})
	} else {
		subscriber = natsSub
		closers = append(closers, natsSub.Close)
	}

	provider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  providerBaseURL(cfg),
		APIKey:   cfg.Keys.HuggingFace,
	})
	if err != nil {
		return nil, err
	}
	guarded := llm.NewCircuitBreakerProvider(provider, llm.BreakerSettings{
		MaxFailures: uint32(cfg.Breaker.MaxFailures),
		Timeout:     cfg.Breaker.Timeout,
		Interval:    cfg.Breaker.Interval,
	}, sysLogger)
	sysLogger.Info(containerModule, "Using LLM provider", map[string]interface{}{
		"provider": provider.Name(),
		"model":    cfg.Ai.LLMModel,
		"fallback": cfg.Ai.LLMFallbackModel,
	})

	eventPublisher := service.NewEventPublisher(eventBus, sysLogger)
	publisherService := service.NewPublisherService(cfg.App.TelemetryTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.TelemetryTopic, uowFactory, sysLogger)
	activityService := service.NewActivityService(subscriber, uowFactory, sysLogger)

	folderService := service.NewFolderService(uowFactory)
	noteService := service.NewNoteService(uowFactory, eventPublisher)
	reflectionService := service.NewReflectionService(uowFactory, guarded, eventPublisher, service.ReflectionSettings{
		Temperature:   cfg.Ai.Temperature,
		FallbackModel: cfg.Ai.LLMFallbackModel,
	}, sysLogger)
	metricService := service.NewMetricService(uowFactory)

	return &Container{
		Logger: sysLogger,

		FolderController:     controller.NewFolderController(folderService),
		NoteController:       controller.NewNoteController(noteService),
		ReflectionController: controller.NewReflectionController(reflectionService, sysLogger),
		MetricController:     controller.NewMetricController(metricService),
		EventFeedController:  controller.NewEventFeedController(hub),

		PublisherService: publisherService,
		ConsumerService:  consumerService,
		ActivityService:  activityService,
		Hub:              hub,

		closers: closers,
	}, nil
}

// StartBackground runs the event feed hub, the telemetry consumer and the
// activity subscriber until ctx is done.
func (c *Container) StartBackground(ctx context.Context) error {
	go c.Hub.Run(ctx)
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}
	c.ActivityService.Start(ctx)
	return nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func providerBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "huggingface" {
		return cfg.Ai.HuggingFaceBaseURL
	}
	return cfg.Ai.OllamaBaseURL
}

func newRedisClient(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn(containerModule, "Invalid REDIS_URL, event feed stays local", map[string]interface{}{"error": err.Error()})
		return nil
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(containerModule, "Failed to connect to Redis, event feed stays local", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
