package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL path under which the HTTP layer serves local blobs.
const PublicPrefix = "/storage/"

// Local stores blobs below a filesystem root.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates a local store rooted at root. baseURL is the externally
// reachable address of the HTTP server.
func NewLocal(root, baseURL string) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the absolute directory blobs are written to.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := l.pathFromKey(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put streams r into a temp file and hard-links it into place, so a
// concurrent writer of the same key fails instead of overwriting.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := l.pathFromKey(key)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Join(l.root, "tmp"), "put-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return "", err
	}
	err = os.Link(tmpPath, dst)
	cleanup()
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrBlobExists, key)
		}
		return "", err
	}
	return key, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return err
	}
	return nil
}

// Open returns the stored file for key. Missing blobs yield ErrBlobNotFound.
func (l *Local) Open(key string) (*os.File, error) {
	path, err := l.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, err
	}
	return f, nil
}

func (l *Local) URL(key string) string {
	return l.baseURL + PublicPrefix + strings.TrimLeft(key, "/")
}

func (l *Local) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("blob key is required")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("blob key must be relative")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key")
	}
	if clean == "tmp" || strings.HasPrefix(clean, "tmp"+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key")
	}
	return filepath.Join(l.root, clean), nil
}
