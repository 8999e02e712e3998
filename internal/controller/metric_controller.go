package controller

import (
	"ai-notes-reflect/internal/pkg/serverutils"
	"ai-notes-reflect/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMetricController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
}

type metricController struct {
	metricService service.IMetricService
}

func NewMetricController(metricService service.IMetricService) IMetricController {
	return &metricController{metricService: metricService}
}

func (c *metricController) RegisterRoutes(r fiber.Router) {
	r.Get("/metrics", c.GetAll)
}

func (c *metricController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.metricService.GetAll(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get metrics", res))
}
