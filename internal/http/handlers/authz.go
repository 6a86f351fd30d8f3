package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	applog "shoplocal/internal/log"
)

// RequireAdmin guards admin routes: the session must carry an admin
// identity or the request is redirected to the login page.
func RequireAdmin(sessions *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c)
		if err != nil {
			return c.Redirect("/admin/login")
		}
		id, _ := sess.Get("admin_id").(string)
		if id == "" {
			applog.Security(c, "access.denied.admin", nil)
			return c.Redirect("/admin/login")
		}
		c.Locals("admin_id", id)
		if name, ok := sess.Get("admin_username").(string); ok {
			c.Locals("admin_username", name)
		}
		return c.Next()
	}
}
