package services_test

import (
	"testing"

	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/testutil"
	"github.com/advodocs/advodocs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSessionsGlobalsFirst(t *testing.T) {
	db := testutil.MemoryDB(t)
	user := registerUser(t, db, "maria@escritorio.adv.br")

	own, err := services.CreateSession(db, user.ID, "Aposentadorias")
	require.NoError(t, err)

	sessions, err := services.ListSessions(db, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, len(models.DefaultSessions)+1)

	for _, s := range sessions[:len(models.DefaultSessions)] {
		assert.Nil(t, s.UsuarioID, "globals come first")
	}
	assert.Equal(t, own.ID, sessions[len(sessions)-1].ID)
}

func TestListSessionsHidesOtherUsers(t *testing.T) {
	db := testutil.MemoryDB(t)
	maria := registerUser(t, db, "maria@escritorio.adv.br")
	joao := registerUser(t, db, "joao@escritorio.adv.br")

	_, err := services.CreateSession(db, joao.ID, "Contratos do João")
	require.NoError(t, err)

	sessions, err := services.ListSessions(db, maria.ID)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.UsuarioID != nil {
			assert.Equal(t, maria.ID, *s.UsuarioID)
		}
	}
}

func TestCreateSessionTrimsAndValidates(t *testing.T) {
	db := testutil.MemoryDB(t)
	user := registerUser(t, db, "maria@escritorio.adv.br")

	session, err := services.CreateSession(db, user.ID, "  Previdenciário  ")
	require.NoError(t, err)
	assert.Equal(t, "Previdenciário", session.Nome)

	_, err = services.CreateSession(db, user.ID, "   ")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCreateSessionDuplicateInScope(t *testing.T) {
	db := testutil.MemoryDB(t)
	user := registerUser(t, db, "maria@escritorio.adv.br")

	_, err := services.CreateSession(db, user.ID, "Previdenciário")
	require.NoError(t, err)

	_, err = services.CreateSession(db, user.ID, "Previdenciário")
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestCreateSessionMayShadowGlobal(t *testing.T) {
	db := testutil.MemoryDB(t)
	user := registerUser(t, db, "maria@escritorio.adv.br")

	// "Criminal" exists globally; a private session with the same name is fine.
	session, err := services.CreateSession(db, user.ID, "Criminal")
	require.NoError(t, err)
	require.NotNil(t, session.UsuarioID)
	assert.Equal(t, user.ID, *session.UsuarioID)
}

func TestCreateSessionSameNameDifferentUsers(t *testing.T) {
	db := testutil.MemoryDB(t)
	maria := registerUser(t, db, "maria@escritorio.adv.br")
	joao := registerUser(t, db, "joao@escritorio.adv.br")

	_, err := services.CreateSession(db, maria.ID, "Audiências")
	require.NoError(t, err)
	_, err = services.CreateSession(db, joao.ID, "Audiências")
	assert.NoError(t, err)
}

func TestDeleteSessionRules(t *testing.T) {
	db := testutil.MemoryDB(t)
	maria := registerUser(t, db, "maria@escritorio.adv.br")
	joao := registerUser(t, db, "joao@escritorio.adv.br")

	var global models.Session
	require.NoError(t, db.Where("usuario_id IS NULL").First(&global).Error)

	err := services.DeleteSession(db, maria.ID, global.ID)
	assert.ErrorIs(t, err, types.ErrForbidden, "globals cannot be deleted")

	theirs, err := services.CreateSession(db, joao.ID, "Contratos")
	require.NoError(t, err)
	err = services.DeleteSession(db, maria.ID, theirs.ID)
	assert.ErrorIs(t, err, types.ErrForbidden, "other users' sessions cannot be deleted")

	err = services.DeleteSession(db, maria.ID, 9999)
	assert.ErrorIs(t, err, types.ErrNotFound)

	mine, err := services.CreateSession(db, maria.ID, "Recursos")
	require.NoError(t, err)
	require.NoError(t, services.DeleteSession(db, maria.ID, mine.ID))

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", mine.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteSessionLeavesFilesDangling(t *testing.T) {
	db := testutil.MemoryDB(t)
	user := registerUser(t, db, "maria@escritorio.adv.br")

	session, err := services.CreateSession(db, user.ID, "Recursos")
	require.NoError(t, err)

	store := newTestStore(t)
	files := uploadTestFiles(t, db, store, user.ID, services.UploadInput{
		OriginalName: "recurso.pdf",
		SessaoID:     &session.ID,
	})
	require.NoError(t, services.DeleteSession(db, user.ID, session.ID))

	// The file survives; its session reference dangles and listings
	// surface a null sessao_nome.
	got, err := services.GetFile(db, user.ID, files[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.SessaoID)
	assert.Equal(t, session.ID, *got.SessaoID)
	assert.Nil(t, got.SessaoNome)
}
