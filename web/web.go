// Package web serves the portal's static HTML pages from the binary.
package web

import (
	"embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed pages/*.html
var pages embed.FS

// RegisterPages mounts the login pages and the admin panel. The root redirects
// to the admin login.
func RegisterPages(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/adminlogin", fiber.StatusFound)
	})
	app.Get("/login", page("login.html"))
	app.Get("/adminlogin", page("adminlogin.html"))
	app.Get("/admin-panel", page("admin-panel.html"))
}

func page(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := pages.ReadFile("pages/" + name)
		if err != nil {
			return fiber.ErrNotFound
		}
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Type("html", "utf-8")
		return c.Send(body)
	}
}
