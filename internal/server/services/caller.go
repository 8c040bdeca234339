// Package services contains server-side business logic: account management,
// the batik intake pipeline, owner-gated mutations and comments. Every
// operation that acts on behalf of a user receives the caller explicitly.
package services

import (
	"fmt"

	"github.com/minangbatik/batikhub/internal/common"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID  int64
	TokenID string
	Name    string
	Email   string
}

// storageError tags err as a store failure so the transport answers 500.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrorStorage, err)
}
