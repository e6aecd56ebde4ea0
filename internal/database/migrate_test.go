package database_test

import (
	"testing"

	"github.com/advodocs/advodocs/internal/database"
	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/testutil"
)

func TestEnsureSchemaSeedsGlobalSessions(t *testing.T) {
	db := testutil.MemoryDB(t)

	var sessions []models.Session
	if err := db.Where("usuario_id IS NULL").Order("nome").Find(&sessions).Error; err != nil {
		t.Fatalf("Failed to load sessions: %v", err)
	}

	if len(sessions) != len(models.DefaultSessions) {
		t.Fatalf("Expected %d global sessions, got %d", len(models.DefaultSessions), len(sessions))
	}
	for _, s := range sessions {
		if s.UsuarioID != nil {
			t.Errorf("Session %q should be global", s.Nome)
		}
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := testutil.MemoryDB(t)

	// A second run must not duplicate the seed data.
	if err := database.EnsureSchema(db); err != nil {
		t.Fatalf("Second EnsureSchema failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.Session{}).Where("usuario_id IS NULL").Count(&count).Error; err != nil {
		t.Fatalf("Failed to count sessions: %v", err)
	}
	if count != int64(len(models.DefaultSessions)) {
		t.Errorf("Expected %d global sessions after rerun, got %d", len(models.DefaultSessions), count)
	}
}
