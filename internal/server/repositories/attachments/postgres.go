package attachments

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

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attachment) error {
	query :=
		`INSERT INTO order_attachments
		 (id, order_id, file_name, storage_key, encrypted_file_key, nonce, upload_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `
	if _, err := r.db.ExecContext(ctx, query,
		a.ID, a.OrderID, a.FileName, a.StorageKey, a.EncryptedFileKey, a.Nonce, a.UploadStatus); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Attachment, error) {
	query :=
		`SELECT id, order_id, file_name, storage_key, encrypted_file_key, nonce, upload_status, created_at
		 FROM order_attachments
		 WHERE id = $1
		 `

	a := &models.Attachment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.OrderID, &a.FileName, &a.StorageKey, &a.EncryptedFileKey, &a.Nonce, &a.UploadStatus, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) ListByOrder(ctx context.Context, orderID string) ([]*models.Attachment, error) {
	query :=
		`SELECT id, order_id, file_name, storage_key, encrypted_file_key, nonce, upload_status, created_at
		 FROM order_attachments
		 WHERE order_id = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Attachment
	for rows.Next() {
		a := &models.Attachment{}
		if err := rows.Scan(
			&a.ID, &a.OrderID, &a.FileName, &a.StorageKey, &a.EncryptedFileKey, &a.Nonce, &a.UploadStatus, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE order_attachments SET upload_status = $2 WHERE id = $1`,
		id, models.UploadStatusUploaded)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
