package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/carnego-backend/internal/handlers"
	"github.com/Ananth-NQI/carnego-backend/internal/middleware"
)

// Options controls the optional parts of the route table
type Options struct {
	Version string
	// SigningSecret enables request signature checks on the API group when set
	SigningSecret string
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, negotiations *handlers.NegotiationHandler, health *handlers.HealthHandler, opts Options) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to CarNego Backend!",
			"version": opts.Version,
			"endpoints": fiber.Map{
				"health":       "/health",
				"negotiations": "/api/negotiations",
			},
		})
	})

	app.Get("/health", health.Check)

	// API routes
	api := app.Group("/api")
	if opts.SigningSecret != "" {
		api.Use(middleware.ValidateSignature(opts.SigningSecret))
	}

	// Negotiation routes
	negotiationRoutes := api.Group("/negotiations")
	negotiationRoutes.Get("/", negotiations.ListSessions)
	negotiationRoutes.Get("/:sessionId", negotiations.GetSession)
	negotiationRoutes.Delete("/:sessionId", negotiations.DeleteSession)
	negotiationRoutes.Post("/:sessionId/turns", negotiations.ProcessTurn)
	negotiationRoutes.Get("/:sessionId/trend", negotiations.GetTrend)
	negotiationRoutes.Post("/:sessionId/phase", negotiations.ChangePhase)
}
