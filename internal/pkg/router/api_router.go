package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/tobiaskarsten/linkstash/app/controllers"
	"github.com/tobiaskarsten/linkstash/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "linkstash api",
		})
	})

	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	v1.Get("/user", controllers.HandleAPIUserProfile)
	v1.Get("/user/subscription", controllers.HandleAPIUserSubscription)

	v1.Get("/collections", controllers.HandleAPICollectionList)
	v1.Post("/collections", controllers.HandleAPICollectionCreate)
	v1.Get("/collections/:id", controllers.HandleAPICollectionGet)
	v1.Patch("/collections/:id", controllers.HandleAPICollectionUpdate)
	v1.Delete("/collections/:id", controllers.HandleAPICollectionDelete)

	v1.Get("/collections/:id/bookmarks", controllers.HandleAPIBookmarkList)
	v1.Post("/collections/:id/bookmarks", controllers.HandleAPIBookmarkCreate)
	v1.Delete("/collections/:id/bookmarks/:bookmarkId", controllers.HandleAPIBookmarkDelete)

	v1.Post("/import", controllers.HandleAPIImport)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
