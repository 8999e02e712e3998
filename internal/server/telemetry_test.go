package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	events []string
}

func (c *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	var msg dto.ApiCallMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	c.events = append(c.events, msg.Event)
	return nil
}

func TestTelemetryMiddlewareNamesMatchedRoute(t *testing.T) {
	pub := &capturePublisher{}
	app := fiber.New()
	api := app.Group("/api")
	api.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	counted := api.Group("", telemetryMiddleware(pub, logger.NewNopLogger()))
	counted.Post("/notes/:id/reflect", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, target := range []string{"/api/notes/42/reflect", "/api/notes/43/reflect"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, target, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"POST_/api/notes/:id/reflect", "POST_/api/notes/:id/reflect"}, pub.events)
}
