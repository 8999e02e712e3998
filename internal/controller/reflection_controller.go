package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"ai-notes-reflect/internal/dto"
	"ai-notes-reflect/internal/pkg/logger"
	"ai-notes-reflect/internal/pkg/serverutils"
	"ai-notes-reflect/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IReflectionController interface {
	RegisterRoutes(r fiber.Router)
	Reflect(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type reflectionController struct {
	reflectionService service.IReflectionService
	logger            logger.ILogger
}

func NewReflectionController(reflectionService service.IReflectionService, log logger.ILogger) IReflectionController {
	return &reflectionController{
		reflectionService: reflectionService,
		logger:            log,
	}
}

func (c *reflectionController) RegisterRoutes(r fiber.Router) {
	r.Post("/notes/:id/reflect", c.Reflect)
	r.Get("/notes/:id/reflections", c.List)
	r.Get("/ai/reflect/stream", c.Stream)
}

func (c *reflectionController) Reflect(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.ReflectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.NoteId = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reflectionService.Reflect(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reflect note", res))
}

func (c *reflectionController) List(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.reflectionService.ListByNote(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list reflections", res))
}

// Stream serves the reflection as server-sent events: chunk frames followed
// by exactly one done frame.
func (c *reflectionController) Stream(ctx *fiber.Ctx) error {
	noteId, err := uuid.Parse(ctx.Query("note_id"))
	if err != nil {
		return serverutils.BadRequest("Invalid note_id")
	}

	run, err := c.reflectionService.OpenStream(ctx.UserContext(), &dto.StreamReflectionRequest{
		NoteId: noteId,
		Mode:   ctx.Query("mode", "general"),
	})
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// the fiber ctx is recycled once the handler returns
	streamCtx, cancel := context.WithCancel(context.Background())
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		emit := func(ev dto.StreamEvent) error {
			return writeEvent(w, ev)
		}
		if err := run(streamCtx, emit); err != nil {
			c.logger.Warn("ReflectionController", "Stream aborted", map[string]interface{}{"note_id": noteId, "error": err.Error()})
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, ev dto.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}
