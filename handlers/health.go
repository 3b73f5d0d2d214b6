package handlers

import (
	"context"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// HandleCheckHealth answers /ping, including a database round trip.
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		log.Warnf("health check failed: %v", err)
		return response.ServiceUnavailable(c, "Database unavailable")
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
