// Package keys persists protected private-key blobs. The repository never
// sees plaintext key material; protection happens in cryptox before rows
// reach this layer.
package keys

import (
	"context"

	"github.com/stringshare/ordervault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, key *models.ProtectedKey) error
	Get(ctx context.Context, userID string) (*models.ProtectedKey, error)
}
