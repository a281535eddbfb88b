package orders

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

const orderColumns = `id, number, sender_id, supervisor_id, purchaser_id,
	 summary_envelope, detail_envelope, status, sent_at, reviewed_at`

func (r *PostgresRepository) Create(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error) {

	query :=
		`INSERT INTO purchase_orders
		 (id, sender_id, supervisor_id, summary_envelope, detail_envelope, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING number, sent_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		order.ID, order.SenderID, order.SupervisorID,
		order.SummaryEnvelope, order.DetailEnvelope, order.Status).
		Scan(&order.Number, &order.SentAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return order, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetForReview(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateReview(ctx context.Context, order *models.PurchaseOrder) error {

	query :=
		`UPDATE purchase_orders
		 SET summary_envelope = $2,
		     detail_envelope = $3,
		     status = $4,
		     purchaser_id = $5,
		     reviewed_at = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		order.ID, order.SummaryEnvelope, order.DetailEnvelope,
		order.Status, order.PurchaserID, order.ReviewedAt)
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

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.PurchaseOrder, error) {
	order := &models.PurchaseOrder{}
	err := row.Scan(
		&order.ID, &order.Number, &order.SenderID, &order.SupervisorID, &order.PurchaserID,
		&order.SummaryEnvelope, &order.DetailEnvelope, &order.Status, &order.SentAt, &order.ReviewedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return order, nil
}
