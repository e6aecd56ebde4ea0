package handlers

import (
	"errors"

	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/types"
	"github.com/advodocs/advodocs/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SessionHandler handles the session (category) routes.
type SessionHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type createSessionRequest struct {
	Nome string `json:"nome"`
}

// List handles GET /api/sessions
// @Summary List sessions
// @Description Returns the global sessions followed by the caller's own
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Session
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /sessions [get]
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions, err := services.ListSessions(h.DB, currentUser(c).ID)
	if err != nil {
		return sendDomainError(c, err, "sessions.list", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(sessions)
}

// Create handles POST /api/sessions
// @Summary Create a session
// @Description Creates a user-scoped session; duplicate names in the same scope are rejected
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body createSessionRequest true "Session data"
// @Success 201 {object} models.Session
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "sessions.create.body")
	}

	session, err := services.CreateSession(h.DB, currentUser(c).ID, req.Nome)
	if err != nil {
		// The duplicate answer keeps 400 plus a machine-readable code so
		// clients can offer to reuse the existing session.
		if errors.Is(err, types.ErrConflict) {
			return utils.ErrorResponseWithCode(c, userMessage(err), fiber.StatusBadRequest, "sessions.create", "DUPLICATE_SESSION")
		}
		return sendDomainError(c, err, "sessions.create", h.Cfg.Development())
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// Delete handles DELETE /api/sessions/:id
// @Summary Delete a session
// @Description Removes a session owned by the caller; global sessions are refused
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "sessions.delete", h.Cfg.Development())
	}

	if err := services.DeleteSession(h.DB, currentUser(c).ID, id); err != nil {
		return sendDomainError(c, err, "sessions.delete", h.Cfg.Development())
	}

	return utils.MessageResponse(c, "Sessão deletada com sucesso")
}
