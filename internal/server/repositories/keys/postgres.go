package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stringshare/ordervault/internal/common"
	"github.com/stringshare/ordervault/internal/dbx"
	"github.com/stringshare/ordervault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, key *models.ProtectedKey) error {
	query :=
		`INSERT INTO protected_keys (user_id, blob, salt)
		 VALUES ($1, $2, $3)
		 `
	if _, err := r.db.ExecContext(ctx, query, key.UserID, key.Blob, key.Salt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.ProtectedKey, error) {
	query :=
		`SELECT user_id, blob, salt FROM protected_keys
		 WHERE user_id = $1
		 `

	key := &models.ProtectedKey{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&key.UserID, &key.Blob, &key.Salt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return key, nil
}
