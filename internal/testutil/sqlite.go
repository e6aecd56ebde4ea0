package testutil

import (
	"testing"

	"github.com/advodocs/advodocs/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDB opens a private in-memory SQLite database with the full schema
// applied, including the seeded global sessions. Each call gets its own
// database, so tests stay independent.
func MemoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// One connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to access connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.EnsureSchema(db); err != nil {
		t.Fatalf("Failed to prepare schema: %v", err)
	}

	return db
}
