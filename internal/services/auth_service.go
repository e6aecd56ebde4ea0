package services

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Claims carries the authenticated user id inside the signed token.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint `json:"uid"`
}

// IssueToken signs an HS256 bearer token for the user.
func IssueToken(userID uint, secret []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	})
	return token.SignedString(secret)
}

// ParseToken verifies signature and expiry and returns the embedded user id.
func ParseToken(tokenString string, secret []byte) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrUnauthorized, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, types.ErrUnauthorized
	}
	return claims.UserID, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(senha string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcryptCost)
	return string(hash), err
}

// validateCredentials checks the register/create-user field constraints.
func validateCredentials(nome, email, senha string) error {
	if len(strings.TrimSpace(nome)) < 2 {
		return types.Validationf("Nome deve ter pelo menos 2 caracteres")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return types.Validationf("Email inválido")
	}
	if len(senha) < 6 {
		return types.Validationf("Senha deve ter pelo menos 6 caracteres")
	}
	return nil
}

// Register creates a new user account. New accounts start with the "user"
// role and rely on the global sessions; no per-user sessions are seeded.
func Register(db *gorm.DB, nome, email, senha string) (*models.User, error) {
	if err := validateCredentials(nome, email, senha); err != nil {
		return nil, err
	}

	hash, err := HashPassword(senha)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Nome:  strings.TrimSpace(nome),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Senha: hash,
		Role:  models.RoleUser,
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
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("User created: %s (ID: %d)", user.Email, user.ID)
	return &user, nil
}

// Login verifies the credentials and returns the account. Wrong email and
// wrong password produce the same error so the endpoint never confirms which
// half was correct.
func Login(db *gorm.DB, email, senha string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Email ou senha inválidos", types.ErrUnauthorized)
		}
		return nil, err
	}

	if !user.Ativo {
		return nil, fmt.Errorf("%w: Usuário inativo", types.ErrUnauthorized)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Senha), []byte(senha)) != nil {
		return nil, fmt.Errorf("%w: Email ou senha inválidos", types.ErrUnauthorized)
	}

	return &user, nil
}

// LoadActiveUser fetches a user by id for the auth gate, rejecting missing or
// deactivated accounts.
func LoadActiveUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Usuário inválido ou inativo", types.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.Ativo {
		return nil, fmt.Errorf("%w: Usuário inválido ou inativo", types.ErrUnauthorized)
	}
	return &user, nil
}
