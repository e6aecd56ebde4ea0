package models

import (
	"time"
)

// Roles assignable to a user account.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account that owns files and private sessions. Accounts are
// deactivated (Ativo=false) rather than hard-deleted in normal operation.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Nome      string    `json:"nome" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Senha     string    `json:"-" gorm:"size:255;not null"`
	Role      string    `json:"role" gorm:"size:20;not null;default:user"`
	Ativo     bool      `json:"ativo" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "usuarios"
}
