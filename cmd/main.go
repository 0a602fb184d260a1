package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calderaweb/pressroom/internal/api"
	"github.com/calderaweb/pressroom/internal/assets"
	"github.com/calderaweb/pressroom/internal/blob"
	"github.com/calderaweb/pressroom/internal/cache"
	"github.com/calderaweb/pressroom/internal/config"
	"github.com/calderaweb/pressroom/internal/database"
	"github.com/calderaweb/pressroom/internal/lifecycle"
	"github.com/calderaweb/pressroom/internal/logger"
	"github.com/calderaweb/pressroom/internal/middleware"
	"github.com/calderaweb/pressroom/internal/notify"
	"github.com/calderaweb/pressroom/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: cfg.Env == "development",
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Msg("Starting application...")

	// Document store. Development falls back to the in-memory
	// repository so the service runs without Postgres.
	var repo repository.PostRepository
	db, err := database.Connect(cfg)
	if err != nil {
		if cfg.Env != "development" {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		log.Warn().Err(err).Msg("Database unavailable, using in-memory repository")
		repo = repository.NewMemoryRepository(cfg.PageSize)
	} else {
		repo = repository.NewPostRepository(db, cfg.PageSize)
	}

	// Blob store
	blobs, err := blob.NewS3Store(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blob storage")
	}

	// Rendering-cache invalidation sinks
	var invalidators []lifecycle.Invalidator
	var pageCache api.PageCache
	redisInvalidator, err := cache.NewRedisInvalidator(cfg)
	if err != nil {
		if cfg.Env != "development" {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		log.Warn().Err(err).Msg("Redis unavailable, page-cache invalidation disabled")
	} else {
		invalidators = append(invalidators, redisInvalidator)
		pageCache = redisInvalidator
		defer func() {
			log.Info().Msg("Closing Redis client...")
			if err := redisInvalidator.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing Redis client")
			}
		}()
	}
	if webhook := notify.NewWebhookNotifier(cfg); webhook.Enabled() {
		invalidators = append(invalidators, webhook)
	}

	// Content lifecycle
	resolver := assets.NewResolver(cfg.BlobPublicHost)
	gc := assets.NewGarbageCollector(blobs, resolver, repo)
	manager := lifecycle.NewManager(repo, gc, invalidators...)

	// Create Fiber app with custom config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    int(cfg.MaxUploadSize) + 1<<20,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	// Setup API routes
	api.SetupRoutes(app, cfg, api.NewHandlers(cfg, repo, manager, blobs, pageCache))

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
