// Package blobstore provides key-addressed storage for uploaded images with a
// local filesystem backend and an S3-compatible backend.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound is returned (wrapped) when a key has no blob behind it.
var ErrBlobNotFound = errors.New("blob not found")

// ErrBlobExists is returned (wrapped) by Put when key is already taken.
var ErrBlobExists = errors.New("blob already exists")

// Store is the blob store contract used by the intake pipeline.
type Store interface {
	// Exists reports whether a blob is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
	// Put writes r under key and returns the key actually used. It never
	// replaces an existing blob; a taken key yields ErrBlobExists.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Delete removes the blob at key. A missing blob yields ErrBlobNotFound.
	Delete(ctx context.Context, key string) error
	// URL resolves the public address of key. It never touches the backend.
	URL(key string) string
}
