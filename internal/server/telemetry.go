package server

import (
	"encoding/json"
	"fmt"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// telemetryMiddleware publishes one event per handled request, named after
// the method and the matched route, e.g. "POST_/api/notes/:id/reflect".
func telemetryMiddleware(publisher service.IPublisherService, log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()

		event := fmt.Sprintf("%s_%s", ctx.Method(), ctx.Route().Path)
		payload, _ := json.Marshal(dto.ApiCallMessage{Event: event})
		if pubErr := publisher.Publish(ctx.UserContext(), payload); pubErr != nil {
			log.Warn("Telemetry", "Failed to publish api call", map[string]interface{}{"event": event, "error": pubErr.Error()})
		}
		return err
	}
}
