package handlers

import (
	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminHandler handles the administrative user management routes. Every
// route is behind RequireAuth + RequireAdmin.
type AdminHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type createUserRequest struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Senha string `json:"senha"`
	Role  string `json:"role"`
}

type updateUserRequest struct {
	Nome  *string `json:"nome"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
	Ativo *bool   `json:"ativo"`
}

type updatePasswordRequest struct {
	Senha string `json:"senha"`
}

// ListUsers handles GET /api/admin/users
// @Summary List accounts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Match against name and email"
// @Param ativo query bool false "Filter by active state"
// @Param role query string false "Filter by role"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	filter := services.UserFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	if v := c.Query("ativo"); v != "" {
		ativo := v == "true" || v == "1"
		filter.Ativo = &ativo
	}

	users, total, err := services.ListUsers(h.DB, filter)
	if err != nil {
		return sendDomainError(c, err, "admin.users.list", h.Cfg.Development())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"usuarios": users,
		"total":    total,
	})
}

// GetUser handles GET /api/admin/users/:id
// @Summary Account detail
// @Description Returns the account with its file and session counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} services.UserDetail
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "admin.users.get", h.Cfg.Development())
	}

	detail, err := services.GetUserDetail(h.DB, id)
	if err != nil {
		return sendDomainError(c, err, "admin.users.get", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(detail)
}

// CreateUser handles POST /api/admin/users
// @Summary Create an account
// @Description Creates an account with its own copies of the default sessions
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body createUserRequest true "Account data"
// @Success 201 {object} models.User
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "admin.users.create.body")
	}

	user, err := services.CreateUser(h.DB, req.Nome, req.Email, req.Senha, req.Role)
	if err != nil {
		return sendDomainError(c, err, "admin.users.create", h.Cfg.Development())
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser handles PUT /api/admin/users/:id
// @Summary Update an account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body updateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "admin.users.update", h.Cfg.Development())
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "admin.users.update.body")
	}

	user, err := services.UpdateUser(h.DB, id, services.UserUpdate{
		Nome:  req.Nome,
		Email: req.Email,
		Role:  req.Role,
		Ativo: req.Ativo,
	})
	if err != nil {
		return sendDomainError(c, err, "admin.users.update", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// UpdatePassword handles PATCH /api/admin/users/:id/password
// @Summary Reset an account password
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body updatePasswordRequest true "New password"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/users/{id}/password [patch]
func (h *AdminHandler) UpdatePassword(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "admin.users.password", h.Cfg.Development())
	}

	var req updatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "admin.users.password.body")
	}

	if err := services.UpdateUserPassword(h.DB, id, req.Senha); err != nil {
		return sendDomainError(c, err, "admin.users.password", h.Cfg.Development())
	}
	return utils.MessageResponse(c, "Senha atualizada com sucesso")
}

// DeleteUser handles DELETE /api/admin/users/:id
// @Summary Delete an account
// @Description Admins cannot delete their own account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "admin.users.delete", h.Cfg.Development())
	}

	if err := services.DeleteUser(h.DB, currentUser(c).ID, id); err != nil {
		return sendDomainError(c, err, "admin.users.delete", h.Cfg.Development())
	}
	return utils.MessageResponse(c, "Usuário deletado com sucesso")
}

// Stats handles GET /api/admin/stats
// @Summary Installation statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Stats
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := services.GetStats(h.DB)
	if err != nil {
		return sendDomainError(c, err, "admin.stats", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}
