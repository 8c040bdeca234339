// Package users declares the credential store's persistence contract and
// its PostgreSQL implementation.
package users

import (
	"context"

	"github.com/minangbatik/batikhub/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills ID and CreatedAt. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
