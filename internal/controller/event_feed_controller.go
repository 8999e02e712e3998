package controller

import (
	internalWS "ai-notes-reflect/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IEventFeedController interface {
	RegisterRoutes(r fiber.Router)
}

type eventFeedController struct {
	hub *internalWS.Hub
}

func NewEventFeedController(hub *internalWS.Hub) IEventFeedController {
	return &eventFeedController{hub: hub}
}

func (c *eventFeedController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ws")
	h.Use(func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("/events", websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(c.hub, conn)
	}))
}
