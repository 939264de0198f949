package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
	"github.com/Ananth-NQI/carnego-backend/internal/services"
	"github.com/Ananth-NQI/carnego-backend/internal/storage"
	"github.com/Ananth-NQI/carnego-backend/internal/utils"
)

// NegotiationHandler exposes negotiation sessions over HTTP
type NegotiationHandler struct {
	service *services.NegotiationService
}

// NewNegotiationHandler creates a new negotiation handler
func NewNegotiationHandler(service *services.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{
		service: service,
	}
}

// phaseChange is the body of a manual phase move
type phaseChange struct {
	Phase models.Phase `json:"phase"`
}

// ProcessTurn applies one customer turn to the session
func (h *NegotiationHandler) ProcessTurn(c *fiber.Ctx) error {
	var req services.TurnRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.ProcessTurn(c.UserContext(), c.Params("sessionId"), req)
	if err != nil {
		return errorResponse(c, err)
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

// GetSession returns the full session state
func (h *NegotiationHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(session)
}

// GetTrend returns the emotional trend analysis of a session
func (h *NegotiationHandler) GetTrend(c *fiber.Ctx) error {
	report, err := h.service.Trend(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(report)
}

// ListSessions lists open sessions, optionally filtered by customer_id
func (h *NegotiationHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListActive(c.UserContext(), c.Query("customer_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// DeleteSession removes a session
func (h *NegotiationHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.service.DeleteSession(c.UserContext(), c.Params("sessionId")); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePhase performs a manual phase regression
func (h *NegotiationHandler) ChangePhase(c *fiber.Ctx) error {
	var body phaseChange

	if err := c.BodyParser(&body); err != nil || body.Phase == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phase is required",
		})
	}

	session, err := h.service.Regress(c.UserContext(), c.Params("sessionId"), body.Phase)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(session.Summary())
}

// errorResponse maps service errors to HTTP statuses
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, utils.ErrInvalidSessionID), errors.Is(err, utils.ErrInvalidCustomerID):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrPhaseChangeNotAllowed):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrUnsupportedSnapshotVersion):
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
