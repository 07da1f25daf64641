// Package webapi exposes the conversion service over HTTP. It is a thin
// shell: parsing and response shaping only, with all semantics in the layers
// below.
package webapi

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"fxgate/infra/cache"
	"fxgate/pkg/service/conversion"
)

// Deps carries the services the HTTP layer consumes.
type Deps struct {
	Conversion *conversion.Service
	Rates      *cache.CoalescingCache
	Breaker    interface{ BreakerStatus() string }
	Logger     *slog.Logger
}

// SetupApp builds the Fiber application with all routes registered.
func SetupApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "fxgate",
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(recover.New())

	app.Get("/health", HealthHandler(deps))

	api := app.Group("/api")
	api.Get("/convert", ConvertHandler(deps))
	api.Get("/rates/:base", RatesHandler(deps))

	return app
}

// HealthHandler reports liveness plus the breaker state, so operators can
// tell a healthy process with a down upstream from a dead process.
func HealthHandler(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok"}
		if deps.Breaker != nil {
			body["upstream_circuit"] = deps.Breaker.BreakerStatus()
		}
		return c.Status(fiber.StatusOK).JSON(body)
	}
}
