package orders

import (
	"context"

	"github.com/stringshare/ordervault/internal/server/models"
)

type Repository interface {
	// Create inserts a new pending order; the order number is assigned by the
	// database sequence and written back into the returned record.
	Create(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error)

	GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error)

	// GetForReview loads the order with a row lock so concurrent reviews of
	// the same order serialize. Must run on a transaction handle.
	GetForReview(ctx context.Context, id string) (*models.PurchaseOrder, error)

	// UpdateReview writes the complete review outcome (both envelopes,
	// status, purchaser, reviewed timestamp) in a single statement.
	UpdateReview(ctx context.Context, order *models.PurchaseOrder) error
}
