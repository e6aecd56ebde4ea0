package database_test

import (
	"testing"

	"github.com/advodocs/advodocs/internal/database"
	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/testutil"
	"github.com/advodocs/advodocs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresSchema runs the schema and a few key flows against a real
// Postgres instance. Requires Docker; skipped with -short.
func TestPostgresSchema(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container-backed test in short mode")
	}

	db := testutil.PostgresDB(t)
	require.NoError(t, database.EnsureSchema(db))

	t.Run("global sessions seeded once", func(t *testing.T) {
		require.NoError(t, database.EnsureSchema(db))

		var count int64
		require.NoError(t, db.Model(&models.Session{}).Where("usuario_id IS NULL").Count(&count).Error)
		assert.Equal(t, int64(len(models.DefaultSessions)), count)
	})

	t.Run("register and login", func(t *testing.T) {
		user, err := services.Register(db, "Maria Silva", "maria@escritorio.adv.br", "segredo123")
		require.NoError(t, err)

		logged, err := services.Login(db, "maria@escritorio.adv.br", "segredo123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, logged.ID)
	})

	t.Run("duplicate email maps to conflict", func(t *testing.T) {
		_, err := services.Register(db, "Outra Maria", "maria@escritorio.adv.br", "segredo456")
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("session uniqueness is per scope", func(t *testing.T) {
		var user models.User
		require.NoError(t, db.Where("email = ?", "maria@escritorio.adv.br").First(&user).Error)

		_, err := services.CreateSession(db, user.ID, "Criminal")
		assert.NoError(t, err, "a private session may shadow a global one")

		_, err = services.CreateSession(db, user.ID, "Criminal")
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}
