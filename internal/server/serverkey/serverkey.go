// Package serverkey manages the process-wide signing key the server adds to
// every order envelope as a non-repudiation witness. The key pair lives in
// the same protected-key storage as user keys, under a reserved identity,
// and its passphrase comes from configuration. The protected blob is loaded
// once at startup; the private key itself is unlocked transiently for each
// signing call and discarded.
package serverkey

import (
	"context"
	"crypto/rsa"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/cryptox"
	"github.com/stringshare/ordervault/internal/dbx"
	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stringshare/ordervault/internal/server/repositories/repomanager"
)

const (
	witnessEmail = "witness@stringshare.ca"
	witnessName  = "OrderVault Witness"
)

// Manager holds the witness key in its protected form plus the parsed public
// half. Safe for concurrent use after Load.
type Manager struct {
	passphrase []byte
	blob       []byte
	salt       []byte
	public     *rsa.PublicKey
}

// Load fetches the witness key material, provisioning it on first run:
// a reserved user row plus a protected key blob sealed under the configured
// passphrase. The unlock is verified once so a bad passphrase fails at
// startup rather than on the first submission.
func Load(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, passphrase string) (*Manager, error) {
	m := &Manager{passphrase: []byte(passphrase)}

	user, err := rm.Users(db).GetByEmail(ctx, witnessEmail)
	switch {
	case err == nil:
		key, err := rm.Keys(db).Get(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("load witness key: %w", err)
		}
		pub, err := cryptox.DecodePublicKeyPEM(user.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("load witness key: %w", err)
		}
		m.blob, m.salt, m.public = key.Blob, key.Salt, pub

	case errors.Is(err, common.ErrNotFound):
		if err := m.provision(ctx, db, rm); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("load witness key: %w", err)
	}

	// fail fast on a wrong passphrase
	if _, err := cryptox.Unlock(m.blob, m.salt, m.passphrase); err != nil {
		return nil, fmt.Errorf("witness key passphrase rejected: %w", err)
	}

	return m, nil
}

func (m *Manager) provision(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager) error {
	kp, err := cryptox.GenerateKeyPair(cryptox.Identity{Name: witnessName, Email: witnessEmail})
	if err != nil {
		return fmt.Errorf("provision witness key: %w", err)
	}

	blob, salt, err := cryptox.Protect(kp.Private, m.passphrase)
	if err != nil {
		return fmt.Errorf("provision witness key: %w", err)
	}

	pubPEM, err := cryptox.EncodePublicKeyPEM(kp.Public)
	if err != nil {
		return fmt.Errorf("provision witness key: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        witnessEmail,
		FullName:     witnessName,
		PublicKeyPEM: pubPEM,
		PasswordHash: []byte("!"), // no interactive login for the witness account
	}

	if err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := rm.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return rm.Keys(tx).Create(ctx, &models.ProtectedKey{UserID: user.ID, Blob: blob, Salt: salt})
	}); err != nil {
		return fmt.Errorf("provision witness key: %w", err)
	}

	m.blob, m.salt, m.public = blob, salt, kp.Public
	return nil
}

// Public returns the witness public key for verification.
func (m *Manager) Public() *rsa.PublicKey {
	return m.public
}

// Sign unlocks the witness key for the duration of one signing call and
// appends the witness signature to the content.
func (m *Manager) Sign(sc *cryptox.SignedContent) error {
	priv, err := cryptox.Unlock(m.blob, m.salt, m.passphrase)
	if err != nil {
		return fmt.Errorf("unlock witness key: %w", err)
	}
	return sc.Sign(priv)
}
