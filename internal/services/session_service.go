package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/types"
	"gorm.io/gorm"
)

// ListSessions returns the global sessions followed by the user's own,
// alphabetical within each group.
func ListSessions(db *gorm.DB, userID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := db.
		Where("usuario_id = ? OR usuario_id IS NULL", userID).
		Order("CASE WHEN usuario_id IS NULL THEN 0 ELSE 1 END, nome").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a user-scoped session. Uniqueness is checked only
// within the caller's scope: a user session may share its name with a global
// one, the compound unique index keeps each scope free of duplicates.
func CreateSession(db *gorm.DB, userID uint, nome string) (*models.Session, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return nil, types.Validationf("Nome é obrigatório")
	}

	session := models.Session{Nome: nome, UsuarioID: &userID}

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.Session
		err := tx.Select("id").Where("nome = ? AND usuario_id = ?", nome, userID).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: Você já possui uma sessão com este nome", types.ErrConflict)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: Você já possui uma sessão com este nome", types.ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Session %q created (ID: %d) for user %d", nome, session.ID, userID)
	return &session, nil
}

// DeleteSession removes a user-owned session. Global sessions and sessions
// owned by other users are refused. Files referencing the session are left
// untouched; their sessao_id dangles and listings surface a null sessao_nome.
func DeleteSession(db *gorm.DB, userID uint, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.First(&session, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Sessão não encontrada", types.ErrNotFound)
			}
			return err
		}

		if session.UsuarioID == nil {
			return fmt.Errorf("%w: Não é possível deletar sessões globais", types.ErrForbidden)
		}
		if *session.UsuarioID != userID {
			return fmt.Errorf("%w: Você não tem permissão para deletar esta sessão", types.ErrForbidden)
		}

		var fileCount int64
		if err := tx.Model(&models.File{}).Where("sessao_id = ?", id).Count(&fileCount).Error; err != nil {
			return err
		}
		if fileCount > 0 {
			log.Printf("Session %q has %d associated file(s), kept with dangling reference", session.Nome, fileCount)
		}

		return tx.Delete(&models.Session{}, id).Error
	})
}
