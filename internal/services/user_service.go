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

// UserFilter describes the optional admin listing filters.
type UserFilter struct {
	Search string
	Ativo  *bool
	Role   string
	Limit  int
	Offset int
}

// UserDetail is a user joined with its content counts.
type UserDetail struct {
	models.User
	TotalArquivos int64 `json:"total_arquivos"`
	TotalSessoes  int64 `json:"total_sessoes"`
}

// UserUpdate carries the partial admin update fields.
type UserUpdate struct {
	Nome  *string
	Email *string
	Role  *string
	Ativo *bool
}

// Stats summarizes the whole installation for the admin dashboard.
type Stats struct {
	TotalUsuarios        int64 `json:"total_usuarios"`
	UsuariosAtivos       int64 `json:"usuarios_ativos"`
	TotalArquivos        int64 `json:"total_arquivos"`
	TotalSessoes         int64 `json:"total_sessoes"`
	TamanhoTotalArquivos int64 `json:"tamanho_total_arquivos"`
}

// ListUsers returns matching users plus the total match count for pagination.
func ListUsers(db *gorm.DB, f UserFilter) ([]models.User, int64, error) {
	q := db.Model(&models.User{})

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(nome) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if f.Ativo != nil {
		q = q.Where("ativo = ?", *f.Ativo)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUserDetail loads one user with its file and session counts.
func GetUserDetail(db *gorm.DB, id uint) (*UserDetail, error) {
	var detail UserDetail
	err := db.First(&detail.User, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Usuário não encontrado", types.ErrNotFound)
		}
		return nil, err
	}

	if err := db.Model(&models.File{}).Where("usuario_id = ?", id).Count(&detail.TotalArquivos).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Session{}).Where("usuario_id = ?", id).Count(&detail.TotalSessoes).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateUser creates an account on behalf of an admin. Unlike self-service
// registration, admin-created accounts get a private copy of the default
// sessions.
func CreateUser(db *gorm.DB, nome, email, senha, role string) (*models.User, error) {
	if err := validateCredentials(nome, email, senha); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, types.Validationf("Role deve ser admin ou user")
	}

	hash, err := HashPassword(senha)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Nome:  strings.TrimSpace(nome),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Senha: hash,
		Role:  role,
		Ativo: true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Select("id").Where("email = ?", user.Email).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: Email já cadastrado", types.ErrConflict)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: Email já cadastrado", types.ErrConflict)
			}
			return err
		}
		for _, nome := range models.DefaultSessions {
			s := models.Session{Nome: nome, UsuarioID: &user.ID}
			err := tx.Where("nome = ? AND usuario_id = ?", nome, user.ID).FirstOrCreate(&s).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("User created by admin: %s (ID: %d, role: %s)", user.Email, user.ID, user.Role)
	return &user, nil
}

// UpdateUser applies a partial update; nil fields are untouched.
func UpdateUser(db *gorm.DB, id uint, upd UserUpdate) (*models.User, error) {
	changes := map[string]interface{}{}
	if upd.Nome != nil {
		if len(strings.TrimSpace(*upd.Nome)) < 2 {
			return nil, types.Validationf("Nome deve ter pelo menos 2 caracteres")
		}
		changes["nome"] = strings.TrimSpace(*upd.Nome)
	}
	if upd.Email != nil {
		changes["email"] = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.Role != nil {
		if *upd.Role != models.RoleAdmin && *upd.Role != models.RoleUser {
			return nil, types.Validationf("Role deve ser admin ou user")
		}
		changes["role"] = *upd.Role
	}
	if upd.Ativo != nil {
		changes["ativo"] = *upd.Ativo
	}
	if len(changes) == 0 {
		return nil, types.Validationf("Nenhum campo para atualizar")
	}

	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Usuário não encontrado", types.ErrNotFound)
			}
			return err
		}

		if email, ok := changes["email"]; ok {
			var other models.User
			err := tx.Select("id").Where("email = ? AND id != ?", email, id).First(&other).Error
			if err == nil {
				return fmt.Errorf("%w: Email já está em uso", types.ErrConflict)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		return tx.Model(&user).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserPassword replaces a user's password hash. Existence is checked
// explicitly rather than through the affected-row count.
func UpdateUserPassword(db *gorm.DB, id uint, senha string) error {
	if len(senha) < 6 {
		return types.Validationf("Senha deve ter pelo menos 6 caracteres")
	}
	hash, err := HashPassword(senha)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Select("id").Where("id = ?", id).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Usuário não encontrado", types.ErrNotFound)
			}
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Update("senha", hash).Error
	})
}

// DeleteUser hard-deletes an account. Admins cannot delete themselves;
// deactivation (Ativo=false) is the usual path and this remains available
// for cleanup.
func DeleteUser(db *gorm.DB, callerID, id uint) error {
	if callerID == id {
		return types.Validationf("Você não pode deletar sua própria conta")
	}
	res := db.Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: Usuário não encontrado", types.ErrNotFound)
	}
	return nil
}

// GetStats collects installation-wide totals.
func GetStats(db *gorm.DB) (*Stats, error) {
	var stats Stats
	if err := db.Model(&models.User{}).Count(&stats.TotalUsuarios).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("ativo = ?", true).Count(&stats.UsuariosAtivos).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.File{}).Count(&stats.TotalArquivos).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Session{}).Count(&stats.TotalSessoes).Error; err != nil {
		return nil, err
	}
	err := db.Model(&models.File{}).
		Select("COALESCE(SUM(tamanho), 0)").
		Scan(&stats.TamanhoTotalArquivos).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
