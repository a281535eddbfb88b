package services

import (
	"context"
	"database/sql"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/cryptox"
	"github.com/stringshare/ordervault/internal/server/config"
	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func TestRegister_CreatesAccountAndProtectedKey(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager(t)
	s := newUserService(t, db, rm)

	mock.ExpectBegin()
	mock.ExpectCommit()

	password := []byte("dana-pass")
	u, err := s.Register(context.Background(), "dana@example.com", "Dana New", password, []models.Role{models.RoleSender})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, password))
	assert.True(t, u.HasRole(models.RoleSender))

	// the stored blob unlocks with the registration password and matches
	// the published public key
	key := rm.k.byUser[u.ID]
	require.NotNil(t, key)
	priv, err := cryptox.Unlock(key.Blob, key.Salt, password)
	require.NoError(t, err)
	pubPEM, err := cryptox.EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, u.PublicKeyPEM, pubPEM)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager(t)
	s := newUserService(t, db, rm)

	_, err := s.Register(context.Background(), "u-alice@example.com", "Other Alice", []byte("x"), nil)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestRegister_RequiresEmailAndPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeRepoManager(t))

	_, err := s.Register(context.Background(), "", "No Email", []byte("x"), nil)
	assert.Error(t, err)

	_, err = s.Register(context.Background(), "empty@example.com", "No Password", nil, nil)
	assert.Error(t, err)
}

func TestLogin_And_Authenticate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager(t)
	s := newUserService(t, db, rm)

	mock.ExpectBegin()
	mock.ExpectCommit()
	password := []byte("erin-pass")
	u, err := s.Register(context.Background(), "erin@example.com", "Erin Q", password, nil)
	require.NoError(t, err)

	token, err := s.Login(context.Background(), "erin@example.com", password)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := s.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestLogin_WrongPasswordOrUnknownUser(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager(t)
	s := newUserService(t, db, rm)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := s.Register(context.Background(), "frank@example.com", "Frank", []byte("right"), nil)
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "frank@example.com", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = s.Login(context.Background(), "nobody@example.com", []byte("whatever"))
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthenticate_BadToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, newFakeRepoManager(t))

	_, err := s.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestExportPrivateKey(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager(t)
	s := newUserService(t, db, rm)
	p := testParties(t)

	pemBytes, err := s.ExportPrivateKey(context.Background(), "u-alice", p["u-alice"].password)
	require.NoError(t, err)
	block, _ := pem.Decode(pemBytes)
	require.NotNil(t, block)
	assert.Equal(t, "PRIVATE KEY", block.Type)

	_, err = s.ExportPrivateKey(context.Background(), "u-alice", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrWrongPassword)

	_, err = s.ExportPrivateKey(context.Background(), "no-such-user", p["u-alice"].password)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExportPublicKey(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager(t)
	s := newUserService(t, db, rm)
	p := testParties(t)

	pemBytes, err := s.ExportPublicKey(context.Background(), "u-bob")
	require.NoError(t, err)
	assert.Equal(t, p["u-bob"].user.PublicKeyPEM, pemBytes)

	_, err = s.ExportPublicKey(context.Background(), "no-such-user")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
