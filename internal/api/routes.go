package api

import (
	"github.com/calderaweb/pressroom/internal/config"
	"github.com/calderaweb/pressroom/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, cfg *config.Config, handlers *Handlers) {
	// API group with versioning
	api := app.Group("/api/v1")

	// Health check endpoint
	api.Get("/health", handlers.HealthCheck)

	// Public read endpoints
	posts := api.Group("/posts")
	{
		posts.Get("", handlers.ListPosts)                // List with filter/pagination/stats
		posts.Get("/slug/:slug", handlers.GetPostBySlug) // Single post by slug
		posts.Get("/:id", handlers.GetPost)              // Single post by id
	}

	// Admin session endpoints (login itself is unauthenticated)
	admin := api.Group("/admin")
	admin.Post("/login", handlers.Login)
	admin.Post("/logout", handlers.Logout)
	admin.Get("/check", handlers.Check)

	// Admin mutation endpoints
	guarded := admin.Group("", middleware.RequireAdmin(cfg))
	{
		guarded.Post("/posts", handlers.CreatePost)
		guarded.Put("/posts/:id", handlers.UpdatePost)
		guarded.Patch("/posts/:id/status", handlers.PatchStatus)
		guarded.Post("/posts/:id/duplicate", handlers.DuplicatePost)
		guarded.Delete("/posts/:id", handlers.DeletePost)
		guarded.Post("/upload", handlers.Upload)
		guarded.Post("/cache/flush", handlers.FlushCache)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
