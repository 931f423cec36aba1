package repository

import (
	"context"
	"io"
	"time"

	"github.com/hszk-dev/reelstream/internal/domain/model"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
type ObjectStorage interface {
	// GeneratePresignedDownloadURL creates a presigned URL for downloading an object.
	// The URL is valid for the specified duration.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Download retrieves an object from the storage.
	// Caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)
}

// Fetcher retrieves the full binary payload behind a source locator.
type Fetcher interface {
	// Fetch opens the payload for reading.
	// Caller is responsible for closing the returned ReadCloser.
	Fetch(ctx context.Context, locator string) (io.ReadCloser, error)
}

// HandleStore turns retrieved payloads into locally addressable handles.
type HandleStore interface {
	// Materialize consumes r and returns a handle bound to videoID.
	Materialize(ctx context.Context, videoID string, r io.Reader) (*model.Handle, error)

	// Release frees the resources behind a handle. Releasing twice is a no-op.
	Release(handle *model.Handle) error
}
