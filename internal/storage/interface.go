package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the requested object does not exist.
// Callers use it to tell a missing upload apart from a transient storage
// failure.
var ErrNotFound = errors.New("object not found")

// ObjectMetadata describes a stored object.
type ObjectMetadata struct {
	Size        int64
	ContentType string
	ETag        string
}

// ObjectStorage defines the interface for object storage operations
type ObjectStorage interface {
	// EnsureBucket creates the backing bucket if it doesn't exist
	EnsureBucket(ctx context.Context) error

	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetMetadata returns size/content-type/etag for an object
	GetMetadata(ctx context.Context, key string) (*ObjectMetadata, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// PresignPut returns a presigned URL for uploading an object
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)

	// PresignGet returns a presigned URL for downloading an object
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}
