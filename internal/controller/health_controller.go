package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	ping func(ctx context.Context) error
}

// NewHealthController reports "degraded" with 503 when ping fails. A nil
// ping always reports ok.
func NewHealthController(ping func(ctx context.Context) error) IHealthController {
	return &healthController{ping: ping}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	if c.ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
		defer cancel()
		if err := c.ping(pingCtx); err != nil {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
	}
	return ctx.JSON(fiber.Map{"status": "ok"})
}
