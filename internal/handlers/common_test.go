package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// errorEnvelope routes err through sendDomainError and decodes the reply.
func errorEnvelope(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()

	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return sendDomainError(c, err, "test.boom", false)
	})

	resp, reqErr := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	if reqErr != nil {
		t.Fatalf("Request failed: %v", reqErr)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil {
		t.Fatalf("Failed to decode body: %v", decodeErr)
	}
	return resp.StatusCode, body
}

func TestSendDomainErrorTransientAnswers503(t *testing.T) {
	cases := map[string]error{
		"refused connection": fmt.Errorf("query failed: %w", syscall.ECONNREFUSED),
		"reset connection":   fmt.Errorf("query failed: %w", syscall.ECONNRESET),
		"admin shutdown":     fmt.Errorf("query failed: %w", &pgconn.PgError{Code: "57P01"}),
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := errorEnvelope(t, cause)
			if status != fiber.StatusServiceUnavailable {
				t.Fatalf("Expected status 503, got %d", status)
			}
			if body["message"] != "Serviço temporariamente indisponível. Tente novamente." {
				t.Errorf("Unexpected message: %v", body["message"])
			}
			if body["ok"] != false {
				t.Errorf("Expected ok=false, got %v", body["ok"])
			}
		})
	}
}

func TestSendDomainErrorUnknownAnswers500(t *testing.T) {
	status, body := errorEnvelope(t, fmt.Errorf("column does not exist"))
	if status != fiber.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", status)
	}
	if body["message"] != "Erro interno do servidor" {
		t.Errorf("Leaked internal detail: %v", body["message"])
	}
}
