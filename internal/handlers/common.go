package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/advodocs/advodocs/internal/database"
	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/types"
	"github.com/advodocs/advodocs/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// currentUser returns the identity attached by the auth middleware.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// parseID reads a positive numeric path parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, types.Validationf("ID inválido")
	}
	return uint(id), nil
}

// userMessage strips the sentinel prefix a service wrapped around the
// client-facing message.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		types.ErrValidation, types.ErrUnauthorized, types.ErrForbidden,
		types.ErrNotFound, types.ErrConflict, types.ErrUnavailable,
	} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

// sendDomainError maps a service error to the HTTP error envelope. Transient
// connectivity failures answer 503; unknown errors answer 500 with the detail
// suppressed unless running in development.
func sendDomainError(c *fiber.Ctx, err error, errorType string, development bool) error {
	switch {
	case errors.Is(err, types.ErrValidation):
		return utils.ErrorResponse(c, userMessage(err), fiber.StatusBadRequest, errorType)
	case errors.Is(err, types.ErrUnauthorized):
		return utils.ErrorResponse(c, userMessage(err), fiber.StatusUnauthorized, errorType)
	case errors.Is(err, types.ErrForbidden):
		return utils.ErrorResponse(c, userMessage(err), fiber.StatusForbidden, errorType)
	case errors.Is(err, types.ErrNotFound):
		return utils.NotFoundResponse(c, userMessage(err))
	case errors.Is(err, types.ErrConflict):
		return utils.ErrorResponse(c, userMessage(err), fiber.StatusConflict, errorType)
	case errors.Is(err, types.ErrUnavailable):
		return utils.ErrorResponse(c, userMessage(err), fiber.StatusServiceUnavailable, errorType)
	}

	if database.IsTransient(err) {
		log.Printf("Transient database error [%s]: %v", errorType, err)
		return utils.ErrorResponse(c, "Serviço temporariamente indisponível. Tente novamente.",
			fiber.StatusServiceUnavailable, errorType)
	}

	log.Printf("Internal error [%s]: %v", errorType, err)
	message := "Erro interno do servidor"
	if development {
		message = err.Error()
	}
	return utils.ErrorResponse(c, message, fiber.StatusInternalServerError, errorType)
}
