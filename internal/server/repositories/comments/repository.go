// Package comments declares the record store contract for comments attached
// to catalog entries.
package comments

import (
	"context"

	"github.com/minangbatik/batikhub/internal/server/models"
)

type Repository interface {
	// Create inserts the comment. A reference to a missing entry yields
	// common.ErrorNotFound.
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	// ListByBatik returns the comments of one entry, oldest first, with Author set.
	ListByBatik(ctx context.Context, batikID int64) ([]*models.Comment, error)
	Delete(ctx context.Context, id int64) error
}
