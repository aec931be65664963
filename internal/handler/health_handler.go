package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/acegrade/grader-go-api/internal/config"
	"github.com/acegrade/grader-go-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Grading     bool      `json:"grading"`
}

// HealthCheck returns a handler that reports application health, including
// whether the AI credential is configured and grading is therefore live.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Grading:     cfg.GradingEnabled(),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
