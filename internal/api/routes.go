package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/chynybekuuludastan/post_factory/internal/api/handlers"
	"github.com/chynybekuuludastan/post_factory/internal/api/middleware"
	"github.com/chynybekuuludastan/post_factory/internal/config"
)

// Handlers groups every route handler
type Handlers struct {
	Auth      *handlers.AuthHandler
	Meta      *handlers.MetaHandler
	Posts     *handlers.PostHandler
	WebSocket *handlers.WebSocketHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers, cfg *config.Config) {
	api := app.Group("/api")

	api.Get("/health", h.Meta.Health)
	api.Get("/models", h.Meta.Models)

	// Auth routes
	auth := api.Group("/auth")
	auth.Get("/status", h.Meta.AuthStatus)
	auth.Post("/token", h.Auth.IssueToken)

	// Post routes
	protected := middleware.JWTMiddleware(cfg)
	posts := api.Group("/posts", protected)
	posts.Post("/", h.Posts.CreatePost)
	posts.Post("/bulk", h.Posts.CreateBulk)
	posts.Get("/", h.Posts.ListPosts)
	posts.Get("/:id", h.Posts.GetPost)
	posts.Get("/:id/text", h.Posts.DownloadText)
	posts.Get("/:id/image", h.Posts.DownloadImage)

	jobs := api.Group("/jobs", protected)
	jobs.Get("/", h.Posts.ListJobs)
	jobs.Get("/:id", h.Posts.GetJob)

	// WebSocket endpoint for bulk job progress
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws/jobs/:id", protected, websocket.New(h.WebSocket.HandleJobWebSocket))
}

// ErrorHandler renders errors as {"success": false, "error": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
