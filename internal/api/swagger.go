package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	_ "github.com/chynybekuuludastan/post_factory/docs" // registers the swagger spec
)

// SetupSwagger configures the Swagger routes
func SetupSwagger(app *fiber.App) {
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/swagger", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/index.html")
	})
}
