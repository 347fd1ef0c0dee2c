package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/fluentblocks/fluentblocks-api/internal/config"
	"github.com/fluentblocks/fluentblocks-api/internal/database"
	"github.com/fluentblocks/fluentblocks-api/internal/handlers"
	appLogger "github.com/fluentblocks/fluentblocks-api/internal/logger"
	"github.com/fluentblocks/fluentblocks-api/internal/planner"
	"github.com/fluentblocks/fluentblocks-api/internal/routes"
	"github.com/fluentblocks/fluentblocks-api/internal/services"
	"github.com/fluentblocks/fluentblocks-api/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zlog, err := appLogger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		zlog.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("Failed to migrate database", "error", err)
	}

	ai, err := services.NewOpenAIPlanner(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to build planning service", "error", err)
	}

	events, err := services.NewRedisEventPublisher(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to redis", "error", err)
	}
	defer events.Close()

	repo := storage.NewGormRoadmapRepository(db)
	usecases := planner.NewUsecases(repo, ai, events, zlog)

	app := fiber.New(fiber.Config{
		AppName: "fluentblocks-api",
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Setup(app, routes.Deps{
		Cfg:     cfg,
		Auth:    handlers.NewAuthHandler(db, cfg),
		Planner: handlers.NewPlannerHandler(usecases, zlog),
	})

	zlog.Info("Starting server", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("Server stopped", "error", err)
	}
}
