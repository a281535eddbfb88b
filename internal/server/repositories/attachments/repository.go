package attachments

import (
	"context"

	"github.com/stringshare/ordervault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Attachment) error
	Get(ctx context.Context, id string) (*models.Attachment, error)
	ListByOrder(ctx context.Context, orderID string) ([]*models.Attachment, error)
	MarkUploaded(ctx context.Context, id string) error
}
