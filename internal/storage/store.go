package storage

import (
	"StudyVault/config"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned when the requested object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectExists is returned by Put when the path is already taken.
	ErrObjectExists = errors.New("object already exists")
)

// Store abstracts the blob operations the lifecycle engine relies on. Paths are
// opaque keys inside a single bucket chosen at construction. Put never
// replaces an existing object.
type Store interface {
	Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, path string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// New builds the store selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "minio", "":
		return NewMinioStore(ctx, cfg)
	case "s3":
		return NewS3Store(ctx, cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
