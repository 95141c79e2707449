package handlers

import (
	"errors"
	"time"

	"session-pool-system/middleware"
	"session-pool-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupCronRoutes registers the sweep entry points invoked by the external
// scheduling trigger. Every endpoint is idempotent and safe to re-invoke;
// per-session failures come back in the response body, never as a 5xx for
// the whole sweep.
func SetupCronRoutes(app *fiber.App, gates *services.GateService, streaks *services.StreakService, instant *services.InstantMatchService) {
	cron := app.Group("/cron", middleware.CronAuthMiddleware())

	cron.Get("/gate-open", func(c *fiber.Ctx) error {
		opened, failures := gates.OpenDueGates(time.Now().UTC())
		return c.JSON(fiber.Map{"success": true, "opened": opened, "failures": failures})
	})

	cron.Get("/gate-close", func(c *fiber.Ctx) error {
		now := time.Now().UTC()

		closed, closeFailures := gates.CloseDueGates(c.Context(), now)
		completed, completeFailures := gates.CompleteExpiredSessions(now)

		for _, sessionID := range completed {
			if _, err := streaks.RecordSessionParticipation(sessionID, now); err != nil {
				completeFailures = append(completeFailures, services.SweepFailure{
					SessionID: sessionID, Reason: err.Error(),
				})
			}
		}

		return c.JSON(fiber.Map{
			"success":   true,
			"closed":    closed,
			"completed": completed,
			"failures":  append(closeFailures, completeFailures...),
		})
	})

	cron.Get("/instant-match", func(c *fiber.Ctx) error {
		matched, err := instant.SweepInstantQueue(c.Context(), time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "matched": matched})
	})

	cron.Get("/streak-reset", func(c *fiber.Ctx) error {
		count, err := streaks.DailyStreakReset(time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "reset": count})
	})

	// Close one specific gate, for admin-triggered matching.
	cron.Post("/matching", func(c *fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}

		report, err := gates.CloseGate(c.Context(), req.SessionID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrValidation):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, services.ErrNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"success": true, "report": report})
	})
}
