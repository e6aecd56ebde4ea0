package middleware_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/middleware"
	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:        "test",
		JWTSecret:  "middleware-test-secret",
		JWTExpires: time.Hour,
	}
}

func protectedApp(db *gorm.DB, cfg *config.Config, adminOnly bool) *fiber.App {
	app := fiber.New()
	chain := []fiber.Handler{middleware.RequireAuth(db, cfg)}
	if adminOnly {
		chain = append(chain, middleware.RequireAdmin())
	}
	handler := func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		return c.JSON(fiber.Map{"email": user.Email})
	}
	app.Get("/protected", append(chain, handler)...)
	return app
}

func tokenFor(t *testing.T, cfg *config.Config, userID uint) string {
	t.Helper()
	token, err := services.IssueToken(userID, []byte(cfg.JWTSecret), cfg.JWTExpires)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	db := testutil.MemoryDB(t)
	app := protectedApp(db, testConfig(), false)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	db := testutil.MemoryDB(t)
	cfg := testConfig()
	app := protectedApp(db, cfg, false)

	for _, header := range []string{"Basic abc", "Bearer", "garbage"} {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Errorf("Header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	db := testutil.MemoryDB(t)
	app := protectedApp(db, testConfig(), false)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	db := testutil.MemoryDB(t)
	cfg := testConfig()

	user, err := services.Register(db, "Maria Silva", "maria@escritorio.adv.br", "segredo123")
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}

	app := protectedApp(db, cfg, false)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, user.ID))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestRequireAuthRejectsDeactivatedUser(t *testing.T) {
	db := testutil.MemoryDB(t)
	cfg := testConfig()

	user, err := services.Register(db, "Maria Silva", "maria@escritorio.adv.br", "segredo123")
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}
	token := tokenFor(t, cfg, user.ID)

	// Deactivation takes effect immediately, even for tokens already issued.
	if err := db.Model(user).Update("ativo", false).Error; err != nil {
		t.Fatalf("Failed to deactivate user: %v", err)
	}

	app := protectedApp(db, cfg, false)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAdmin(t *testing.T) {
	db := testutil.MemoryDB(t)
	cfg := testConfig()

	user, err := services.Register(db, "Maria Silva", "maria@escritorio.adv.br", "segredo123")
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}
	admin, err := services.CreateUser(db, "Admin", "admin@escritorio.adv.br", "segredo123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}

	app := protectedApp(db, cfg, true)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, user.ID))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("Expected 403 for regular user, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, admin.ID))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200 for admin, got %d", resp.StatusCode)
	}
}
