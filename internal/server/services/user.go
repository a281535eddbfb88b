// Package services contains server-side business logic. This file implements
// UserService: registration (account plus protected key pair), login, and
// the key-export pass-throughs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/cryptox"
	"github.com/stringshare/ordervault/internal/dbx"
	"github.com/stringshare/ordervault/internal/server/auth"
	"github.com/stringshare/ordervault/internal/server/config"
	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stringshare/ordervault/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService provides account operations:
//   - Register: create a user with a freshly generated, password-protected key pair
//   - Login: verify credentials and mint an access token
//   - Authenticate: resolve a token back to its user
//   - ExportPrivateKey / ExportPublicKey: §6 key-export pass-throughs
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new user: bcrypt login hash, a fresh RSA key pair bound
// to the user's identity, and the private key protected under the same
// password with a fresh salt. The account row and the protected key are
// written in one transaction; the plaintext private key never leaves this
// call.
func (s *UserService) Register(ctx context.Context, email, fullName string, password []byte, roles []models.Role) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("password required")
	}

	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, email); err == nil {
		return nil, common.ErrAlreadyExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInternal
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	kp, err := cryptox.GenerateKeyPair(cryptox.Identity{Name: fullName, Email: email})
	if err != nil {
		return nil, common.ErrInternal
	}

	blob, salt, err := cryptox.Protect(kp.Private, password)
	if err != nil {
		return nil, common.ErrInternal
	}

	pubPEM, err := cryptox.EncodePublicKeyPEM(kp.Public)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PublicKeyPEM: pubPEM,
		PasswordHash: hash,
		Roles:        roles,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Keys(tx).Create(ctx, &models.ProtectedKey{
			UserID: user.ID,
			Blob:   blob,
			Salt:   salt,
		})
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	return user, nil
}

// Login verifies the password against the stored bcrypt hash and, on
// success, returns a new access token.
func (s *UserService) Login(ctx context.Context, email string, password []byte) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, password) != nil {
		return "", common.ErrUnauthorized
	}

	return auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
}

// Authenticate resolves an access token to its user record.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrUnauthorized
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}

// ExportPrivateKey unlocks the user's private key behind the usual password
// gate and returns it serialized for download. The unlocked key is dropped
// as soon as it is encoded.
func (s *UserService) ExportPrivateKey(ctx context.Context, userID string, password []byte) ([]byte, error) {
	key, err := s.repomanager.Keys(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}

	priv, err := cryptox.Unlock(key.Blob, key.Salt, password)
	if err != nil {
		return nil, common.ErrWrongPassword
	}

	return cryptox.EncodePrivateKeyPEM(priv)
}

// ExportPublicKey returns the user's public key material.
func (s *UserService) ExportPublicKey(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.PublicKeyPEM, nil
}
