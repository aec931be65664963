package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acegrade/grader-go-api/internal/config"
	"github.com/acegrade/grader-go-api/internal/handler"
	"github.com/acegrade/grader-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradeHandler  *handler.GradeHandler
	JWTMiddleware fiber.Handler
	RateLimit     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.GradeHandler != nil {
		grading := api.Group("", jwtMiddleware)
		deps.GradeHandler.Register(grading, deps.RateLimit)
	}
}
