package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CronAuthMiddleware guards the sweep endpoints: only the external
// scheduling trigger holding CRON_SECRET may invoke them.
func CronAuthMiddleware() fiber.Handler {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" {
		log.Fatal("❌ CRON_SECRET is not set — cron endpoints cannot be authenticated")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token == "" || token != secret {
			log.Printf("🚫 [CRON_AUTH] Rejected trigger call for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid cron secret",
			})
		}

		return c.Next()
	}
}
