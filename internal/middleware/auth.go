package middleware

import (
	"strings"
	"time"

	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/database"
	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// RequireAuth validates the bearer token, loads the account, and attaches it
// to the request context. Missing, invalid and expired tokens as well as
// deactivated accounts all answer 401; a database outage during the lookup
// answers 503 once the retries are exhausted.
func RequireAuth(db *gorm.DB, cfg *config.Config) fiber.Handler {
	secret := []byte(cfg.JWTSecret)
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return unauthorized(c, "Token não fornecido")
		}

		userID, err := services.ParseToken(token, secret)
		if err != nil {
			return unauthorized(c, "Token inválido")
		}

		var user *models.User
		err = database.WithRetry(c.UserContext(), func() error {
			var lookupErr error
			user, lookupErr = services.LoadActiveUser(db, userID)
			return lookupErr
		})
		if err != nil {
			if database.IsTransient(err) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  fiber.StatusServiceUnavailable,
					"message": "Serviço temporariamente indisponível. Tente novamente.",
					"ok":      false,
					"type":    "auth.authentication",
				})
			}
			return unauthorized(c, "Usuário inválido ou inativo")
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// RequireAdmin rejects any identity without the admin role. Must run after
// RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  fiber.StatusForbidden,
				"message": "Acesso negado. Apenas administradores",
				"ok":      false,
				"type":    "auth.authorization.admin",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the identity attached by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// AuthRateLimit throttles credential endpoints per client IP.
func AuthRateLimit(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        15 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  fiber.StatusTooManyRequests,
				"message": "Muitas tentativas, tente novamente em alguns minutos",
				"ok":      false,
				"type":    "auth.ratelimit",
			})
		},
	})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  fiber.StatusUnauthorized,
		"message": message,
		"ok":      false,
		"type":    "auth.authentication",
	})
}
