package inventory

import (
	"context"
	"time"

	"warehouse-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GET /api/health
func HealthHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "unavailable",
				"storage": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
