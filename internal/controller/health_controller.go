package controller

import (
	"context"
	"time"

	"book-rag-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	service string
	version string
	checks  map[string]HealthCheck
}

func NewHealthController(service, version string, checks map[string]HealthCheck) IHealthController {
	return &healthController{service: service, version: version, checks: checks}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	probeCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(c.checks))
	for name, check := range c.checks {
		if err := check(probeCtx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	res := dto.HealthResponse{
		Service:      c.service,
		Version:      c.version,
		Status:       status,
		Timestamp:    time.Now().UTC(),
		Dependencies: deps,
	}
	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}
	return ctx.Status(code).JSON(res)
}
