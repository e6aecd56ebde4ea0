package handlers

import (
	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthHandler handles registration, login and identity routes.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type credentialsRequest struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// Register handles POST /api/auth/register
// @Summary Register a new account
// @Description Creates a user account and returns a signed token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsRequest true "Account data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "auth.register.body")
	}

	user, err := services.Register(h.DB, req.Nome, req.Email, req.Senha)
	if err != nil {
		return sendDomainError(c, err, "auth.register", h.Cfg.Development())
	}

	token, err := services.IssueToken(user.ID, []byte(h.Cfg.JWTSecret), h.Cfg.JWTExpires)
	if err != nil {
		return sendDomainError(c, err, "auth.register.token", h.Cfg.Development())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
// @Summary Authenticate
// @Description Verifies credentials and returns a signed token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "auth.login.body")
	}

	user, err := services.Login(h.DB, req.Email, req.Senha)
	if err != nil {
		return sendDomainError(c, err, "auth.login", h.Cfg.Development())
	}

	token, err := services.IssueToken(user.ID, []byte(h.Cfg.JWTSecret), h.Cfg.JWTExpires)
	if err != nil {
		return sendDomainError(c, err, "auth.login.token", h.Cfg.Development())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Me handles GET /api/auth/me
// @Summary Current account
// @Description Returns the authenticated account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": currentUser(c),
	})
}
