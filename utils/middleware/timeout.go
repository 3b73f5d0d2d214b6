package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/timeout"
)

// RequestTimeout puts a deadline on the request's UserContext. Services pass
// that context to the database, so a slow query is cancelled instead of
// holding a pooled connection indefinitely.
func RequestTimeout(d time.Duration) fiber.Handler {
	return timeout.NewWithContext(func(c *fiber.Ctx) error {
		return c.Next()
	}, d)
}
