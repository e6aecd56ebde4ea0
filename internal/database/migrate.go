package database

import (
	"fmt"
	"log"

	"github.com/advodocs/advodocs/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate runs automatic migrations for all models. GORM's automigration
// is additive: it creates missing tables, columns and indexes and never drops
// existing ones, so re-execution is safe.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.File{},
	)
}

// EnsureSchema migrates the schema and seeds the default global sessions when
// none exist yet. Idempotent; safe to run on every startup.
func EnsureSchema(db *gorm.DB) error {
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	var count int64
	if err := db.Model(&models.Session{}).Where("usuario_id IS NULL").Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count global sessions: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, nome := range models.DefaultSessions {
		s := models.Session{Nome: nome, UsuarioID: nil}
		err := db.Where("nome = ? AND usuario_id IS NULL", nome).FirstOrCreate(&s).Error
		if err != nil {
			return fmt.Errorf("failed to seed global session %q: %w", nome, err)
		}
	}
	log.Printf("Seeded %d global sessions", len(models.DefaultSessions))

	return nil
}
