package blobstore

import (
	"context"
	"fmt"

	"github.com/minangbatik/batikhub/internal/server/config"
)

// New builds the backend selected by cfg.BlobBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendLocal, "":
		return NewLocal(cfg.LocalStorageDir, cfg.PublicBaseURL)
	case config.BlobBackendS3:
		return NewS3(ctx, S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
			PublicURL:    cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
