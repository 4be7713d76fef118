package controller

import (
	"time"

	"supportly-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	service   string
	startedAt time.Time
}

// NewHealthController serves liveness for both the API and the worker.
func NewHealthController(service string) IHealthController {
	return &healthController{
		service:   service,
		startedAt: time.Now(),
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{
		"service": c.service,
		"uptime":  time.Since(c.startedAt).Round(time.Second).String(),
	}))
}
