// Package accesstokens declares the server-side repository contract for the
// issued bearer tokens. A bearer token is honored only while its row exists.
package accesstokens

import (
	"context"

	"github.com/minangbatik/batikhub/internal/server/models"
)

// Repository defines operations for issuing, retrieving and revoking access tokens.
type Repository interface {
	// Create stores a freshly issued token.
	Create(ctx context.Context, token *models.AccessToken) error

	// Find looks up a token by its id (the JWT jti).
	// Implementations should return common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, id string) (*models.AccessToken, error)

	// Delete revokes one token. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUser revokes every token of a user.
	DeleteByUser(ctx context.Context, userID int64) error
}
