package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupRouter mounts middleware and routes on the fiber app. Request
// logging happens inside the pipeline, so no access-log middleware here.
func SetupRouter(app *fiber.App, handler *ChatHandler) {
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"service": "vaani",
		})
	})

	v1 := app.Group("/v1")
	v1.Post("/chat", handler.HandleChat)
}
