package models

import (
	"time"
)

// Session is a case-category folder. UsuarioID nil means the session is
// global (shared, read-only for regular users); otherwise it belongs to
// exactly one user. Uniqueness is scope-qualified: the same name may exist
// once globally and once per user.
type Session struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Nome      string    `json:"nome" gorm:"size:255;not null;uniqueIndex:idx_sessoes_nome_usuario"`
	UsuarioID *uint     `json:"usuario_id" gorm:"uniqueIndex:idx_sessoes_nome_usuario"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name for Session
func (Session) TableName() string {
	return "sessoes"
}

// DefaultSessions are the global case categories seeded at bootstrap.
var DefaultSessions = []string{"Criminal", "Cível", "Trabalhista", "Tributário", "Família"}
