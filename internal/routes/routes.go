package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fluentblocks/fluentblocks-api/internal/config"
	"github.com/fluentblocks/fluentblocks-api/internal/handlers"
	"github.com/fluentblocks/fluentblocks-api/internal/middleware"
)

type Deps struct {
	Cfg     *config.Config
	Auth    *handlers.AuthHandler
	Planner *handlers.PlannerHandler
}

func Setup(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", d.Auth.Register)
	auth.Post("/login", d.Auth.Login)

	protected := api.Group("/", middleware.Protected(d.Cfg.JWTSecret))

	protected.Get("/me", d.Auth.GetMe)

	planner := protected.Group("/planner")
	planner.Post("/messages", d.Planner.ProcessMessage)
	planner.Get("/roadmaps/active", d.Planner.GetActiveRoadmap)
	planner.Get("/roadmaps/:id", d.Planner.GetRoadmap)
	planner.Post("/roadmaps/:id/confirm", d.Planner.ConfirmRoadmap)
	planner.Post("/roadmaps/:id/milestones/:milestoneId/complete", d.Planner.CompleteMilestone)
}
