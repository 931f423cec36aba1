package cache

import (
	"context"
	"time"

	"github.com/hszk-dev/reelstream/internal/domain/model"
)

// VideoListCache caches the ordered video list served by the list endpoint.
// Implementations should handle serialization/deserialization transparently.
type VideoListCache interface {
	// Get returns the cached list.
	// Returns nil, nil on a cache miss. An empty cached list is returned as a non-nil empty slice.
	Get(ctx context.Context) ([]*model.Video, error)

	// Set stores the list with the specified TTL.
	Set(ctx context.Context, videos []*model.Video, ttl time.Duration) error

	// Delete invalidates the cached list.
	// Returns nil if nothing was cached.
	Delete(ctx context.Context) error
}
