package handlers

import (
	"session-pool-system/middleware"
	"session-pool-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupSessionRoutes registers the user-facing surface behind the gateway
// user context, with /s/ prefix matching the gateway's routing convention.
func SetupSessionRoutes(app *fiber.App, sessions *services.SessionService, instant *services.InstantMatchService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/sessions", sessions.ListSessions)
	secured.Get("/sessions/:id", sessions.GetSession)
	secured.Post("/sessions/:id/join", sessions.JoinSession)

	secured.Post("/queue", instant.JoinQueue)
	secured.Delete("/queue", instant.LeaveQueue)

	secured.Post("/rooms/token", sessions.RoomToken)

	// 🔒 Admin-only routes
	admin := secured.Group("/admin", middleware.RequireRole("admin"))
	admin.Post("/sessions", sessions.CreateSession)
}
