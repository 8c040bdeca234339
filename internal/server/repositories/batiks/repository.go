// Package batiks declares the record store contract for catalog entries and
// its PostgreSQL implementation.
package batiks

import (
	"context"

	"github.com/minangbatik/batikhub/internal/server/models"
)

type Repository interface {
	// Create inserts the entry and fills ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, batik *models.Batik) (*models.Batik, error)
	GetByID(ctx context.Context, id int64) (*models.Batik, error)
	// GetByIDAndOwner returns common.ErrorNotFound both for a missing entry and
	// for an entry owned by someone else.
	GetByIDAndOwner(ctx context.Context, id, userID int64) (*models.Batik, error)
	List(ctx context.Context) ([]*models.Batik, error)
	ListByOwner(ctx context.Context, userID int64) ([]*models.Batik, error)
	// Update rewrites the mutable columns. The owner is never changed.
	Update(ctx context.Context, batik *models.Batik) error
	Delete(ctx context.Context, id int64) error
	// DeleteByOwner removes all entries of a user in one statement and
	// reports how many rows went away.
	DeleteByOwner(ctx context.Context, userID int64) (int64, error)
}
