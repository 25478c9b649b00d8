package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/chynybekuuludastan/post_factory/internal/api"
	"github.com/chynybekuuludastan/post_factory/internal/api/handlers"
	ws "github.com/chynybekuuludastan/post_factory/internal/api/websocket"
	"github.com/chynybekuuludastan/post_factory/internal/bootstrap"
	"github.com/chynybekuuludastan/post_factory/internal/config"
	"github.com/chynybekuuludastan/post_factory/internal/database"
	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/repository"
	"github.com/chynybekuuludastan/post_factory/internal/repository/cache"
)

// @title Post Factory API
// @version 1.0
// @description Generates social media posts with images from a client's website

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.NewConfig()
	appLogger := &logging.DefaultLogger{Verbose: cfg.Environment == "development"}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	services, err := bootstrap.Build(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	// Redis holds job state and downloads
	redisClient, err := database.InitRedis(ctx, cfg.RedisURI)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	store := cache.NewRepository(redisClient, cfg.ArtifactTTL)

	// Postgres is optional and only keeps history
	var repos *repository.Factory
	meta := &handlers.MetaHandler{
		Config:        cfg,
		Credentials:   services.Credentials,
		Providers:     services.LLM.Providers(),
		ImagesEnabled: services.Images != nil,
		DriveEnabled:  services.Uploader != nil,
		Redis:         redisClient,
	}
	if cfg.PostgresURI != "" {
		db, err := database.InitPostgreSQL(cfg.PostgresURI, cfg.Environment == "development")
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()
		repos = repository.NewRepositoryFactory(db.DB)
		meta.DB = db
	} else {
		log.Println("POSTGRES_URI not set; post history disabled")
	}

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	posts := handlers.NewPostHandler(ctx, services.Pipeline, store, repos, hub, cfg, appLogger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    1 << 20,
		ErrorHandler: api.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST",
	}))

	api.SetupSwagger(app)
	api.SetupRoutes(app, api.Handlers{
		Auth:      handlers.NewAuthHandler(cfg, appLogger),
		Meta:      meta,
		Posts:     posts,
		WebSocket: handlers.NewWebSocketHandler(hub),
	}, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	// Cancel running bulk jobs and wait for them to record their state
	stop()
	posts.Wait()
}
