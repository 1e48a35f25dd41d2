package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tobiaskarsten/linkstash/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	// Payment provider callbacks authenticate via request signature, not via
	// API key, so they live outside the /api group.
	app.Post("/webhooks/lemonsqueezy", controllers.HandleLemonSqueezyWebhook)

	// Public share links.
	app.Get("/s/:sharelink", controllers.HandleSharedCollection)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
