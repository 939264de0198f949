package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/carnego-backend/internal/services"
)

// Pinger reports whether a backing database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version  string
	Storage  string
	sessions *services.SessionManager
	db       Pinger
}

// NewHealthHandler creates a new health handler. db may be nil for the memory store.
func NewHealthHandler(version, storage string, sessions *services.SessionManager, db Pinger) *HealthHandler {
	return &HealthHandler{
		Version:  version,
		Storage:  storage,
		sessions: sessions,
		db:       db,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK

	dbStatus := "not_used"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		dbStatus = "connected"
		if err := h.db.PingContext(ctx); err != nil {
			dbStatus = "error: " + err.Error()
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		}
	}

	response := fiber.Map{
		"status":   status,
		"service":  "CarNego Backend",
		"version":  h.Version,
		"storage":  h.Storage,
		"database": dbStatus,
	}
	if h.sessions != nil {
		response["sessions"] = h.sessions.GetSessionStats()
	}

	return c.Status(statusCode).JSON(response)
}
