package middlewares

import "github.com/gofiber/fiber/v2"

// InjectGlobalVars exposes vars to every handler and, with PassLocalsToViews,
// to every rendered template.
func InjectGlobalVars(vars fiber.Map) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for key, val := range vars {
			if c.Locals(key) == nil {
				c.Locals(key, val)
			}
		}
		return c.Next()
	}
}
