package utils

import (
	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/utils/response"
	fiber "github.com/gofiber/fiber/v2"
)

// MakeHTTPHandleFunc adapts a store-backed handler to fiber. Errors that the
// handler returns instead of rendering go through the shared error mapping.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			return response.FromError(c, err)
		}
		return nil
	}
}
