package app

import (
	"strings"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"gorm.io/gorm"

	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/handlers"
	"github.com/advodocs/advodocs/internal/middleware"
	"github.com/advodocs/advodocs/internal/storage"
)

const (
	generalRateLimit = 100
	authRateLimit    = 5
)

// New assembles the Fiber application: global middleware, metrics, swagger
// and every API route.
func New(cfg *config.Config, db *gorm.DB, store storage.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "advodocs",
		BodyLimit:    int(cfg.MaxFileSize) * (handlers.MaxUploadBatch + 1),
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:               generalRateLimit,
		Expiration:        15 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		Next: func(c *fiber.Ctx) bool {
			// Probes and scrapes stay outside the quota.
			path := c.Path()
			return path == "/api/health" || path == "/metrics"
		},
	}))

	prometheus := fiberprometheus.New("advodocs")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	authHandler := &handlers.AuthHandler{DB: db, Cfg: cfg}
	sessionHandler := &handlers.SessionHandler{DB: db, Cfg: cfg}
	fileHandler := &handlers.FileHandler{DB: db, Cfg: cfg, Store: store}
	adminHandler := &handlers.AdminHandler{DB: db, Cfg: cfg}
	healthHandler := &handlers.HealthHandler{DB: db, Cfg: cfg}

	requireAuth := middleware.RequireAuth(db, cfg)
	requireAdmin := middleware.RequireAdmin()

	api := app.Group("/api")

	api.Get("/health", healthHandler.Check)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.AuthRateLimit(authRateLimit), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimit(authRateLimit), authHandler.Login)
	auth.Get("/me", requireAuth, authHandler.Me)

	sessions := api.Group("/sessions", requireAuth)
	sessions.Get("/", sessionHandler.List)
	sessions.Post("/", sessionHandler.Create)
	sessions.Delete("/:id", sessionHandler.Delete)

	files := api.Group("/files", requireAuth)
	files.Get("/", fileHandler.List)
	files.Get("/recent", fileHandler.Recent)
	files.Get("/session/:id", fileHandler.BySession)
	files.Post("/upload", fileHandler.Upload)
	files.Post("/upload-multiple", fileHandler.UploadMultiple)
	files.Put("/:id", fileHandler.Update)
	files.Patch("/:id/access", fileHandler.Access)
	files.Patch("/:id/favorite", fileHandler.Favorite)
	files.Patch("/:id/notes", fileHandler.Notes)
	files.Delete("/:id", fileHandler.Delete)
	files.Get("/:id/view", fileHandler.View)
	files.Get("/:id/download", fileHandler.Download)

	admin := api.Group("/admin", requireAuth, requireAdmin)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/users", adminHandler.CreateUser)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Put("/users/:id", adminHandler.UpdateUser)
	admin.Patch("/users/:id/password", adminHandler.UpdatePassword)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
	admin.Get("/stats", adminHandler.Stats)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "Rota não encontrada",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	return app
}

// errorHandler shapes every error that escapes a handler into the standard
// envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      "unhandled",
	})
}
