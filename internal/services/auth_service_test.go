package services_test

import (
	"testing"
	"time"

	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/testutil"
	"github.com/advodocs/advodocs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("unit-test-secret")

func registerUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user, err := services.Register(db, "Maria Silva", email, "segredo123")
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.MemoryDB(t)

	user := registerUser(t, db, "maria@escritorio.adv.br")
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.Ativo)
	assert.NotEqual(t, "segredo123", user.Senha, "password must be stored hashed")

	logged, err := services.Login(db, "maria@escritorio.adv.br", "segredo123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegisterDoesNotSeedSessions(t *testing.T) {
	db := testutil.MemoryDB(t)

	user := registerUser(t, db, "maria@escritorio.adv.br")

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Where("usuario_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count, "self-registered accounts use the global sessions")
}

func TestRegisterValidation(t *testing.T) {
	db := testutil.MemoryDB(t)

	cases := []struct {
		name  string
		nome  string
		email string
		senha string
	}{
		{"short name", "M", "maria@escritorio.adv.br", "segredo123"},
		{"bad email", "Maria Silva", "not-an-email", "segredo123"},
		{"short password", "Maria Silva", "maria@escritorio.adv.br", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := services.Register(db, tc.nome, tc.email, tc.senha)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := testutil.MemoryDB(t)

	registerUser(t, db, "maria@escritorio.adv.br")

	_, err := services.Register(db, "Outra Maria", "maria@escritorio.adv.br", "segredo456")
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	db := testutil.MemoryDB(t)

	user := registerUser(t, db, "  Maria@Escritorio.ADV.br ")
	assert.Equal(t, "maria@escritorio.adv.br", user.Email)

	_, err := services.Login(db, "MARIA@escritorio.adv.br", "segredo123")
	assert.NoError(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	db := testutil.MemoryDB(t)

	registerUser(t, db, "maria@escritorio.adv.br")

	_, wrongPass := services.Login(db, "maria@escritorio.adv.br", "errada")
	_, wrongMail := services.Login(db, "ninguem@escritorio.adv.br", "segredo123")

	require.Error(t, wrongPass)
	require.Error(t, wrongMail)
	assert.Equal(t, wrongPass.Error(), wrongMail.Error(),
		"wrong email and wrong password must read the same to the client")
	assert.ErrorIs(t, wrongPass, types.ErrUnauthorized)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	db := testutil.MemoryDB(t)

	user := registerUser(t, db, "maria@escritorio.adv.br")
	require.NoError(t, db.Model(user).Update("ativo", false).Error)

	_, err := services.Login(db, "maria@escritorio.adv.br", "segredo123")
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := services.IssueToken(42, testSecret, time.Hour)
	require.NoError(t, err)

	userID, err := services.ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := services.IssueToken(42, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = services.ParseToken(token, []byte("other-secret"))
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestTokenRejectsExpired(t *testing.T) {
	token, err := services.IssueToken(42, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = services.ParseToken(token, testSecret)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestLoadActiveUser(t *testing.T) {
	db := testutil.MemoryDB(t)

	user := registerUser(t, db, "maria@escritorio.adv.br")

	loaded, err := services.LoadActiveUser(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, loaded.Email)

	require.NoError(t, db.Model(user).Update("ativo", false).Error)
	_, err = services.LoadActiveUser(db, user.ID)
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = services.LoadActiveUser(db, 9999)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}
