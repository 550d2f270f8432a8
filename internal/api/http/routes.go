package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khoward12/yard-data-aggregation/internal/pipeline"
)

// RegisterRoutes wires the admin handlers into the Fiber app. The surface is
// read-only: the collector has no user-facing behavior beyond run status and
// metrics.
func RegisterRoutes(app *fiber.App, p *pipeline.Pipeline) {
	v1 := app.Group("/api/v1")

	v1.Get("/runs/last", func(c *fiber.Ctx) error {
		summary, ok := p.LastRun()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no run has completed yet")
		}
		return c.JSON(summary)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
