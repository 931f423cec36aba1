package repository

import (
	"context"

	"github.com/hszk-dev/reelstream/internal/domain/model"
)

// VideoRepository defines the interface for video persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type VideoRepository interface {
	// Create persists a new video entity.
	// Returns ErrDuplicateVideo if a video with the same ID already exists.
	Create(ctx context.Context, video *model.Video) error

	// GetByID retrieves a video by its identifier.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	GetByID(ctx context.Context, id string) (*model.Video, error)

	// List returns every video in feed order (oldest first).
	// Returns an empty slice if no videos exist.
	List(ctx context.Context) ([]*model.Video, error)

	// IncrementViews adds one to the view counter of a video.
	// Returns ErrVideoNotFound if the video does not exist.
	IncrementViews(ctx context.Context, id string) error
}

// VideoSource is the read side of the list endpoint as seen by a feed session.
type VideoSource interface {
	// FetchVideos performs a single request for the ordered video list.
	// Returns ErrInvalidResponseFormat if the payload is not an array.
	FetchVideos(ctx context.Context) ([]model.Video, error)
}
