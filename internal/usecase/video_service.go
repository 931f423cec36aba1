package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

// ErrSourceObjectMissing is returned when a video is registered with an object
// key that is not present in the bucket.
var ErrSourceObjectMissing = errors.New("source object does not exist")

// CreateVideoInput contains the input parameters for registering a video.
type CreateVideoInput struct {
	// SourceURL is either an absolute URI or a bare object key in the configured bucket.
	SourceURL string
}

// VideoService defines the interface for catalog operations behind the list endpoint.
type VideoService interface {
	// ListVideos returns every video ordered by creation time, oldest first.
	ListVideos(ctx context.Context) ([]*model.Video, error)

	// CreateVideo registers a new video at the end of the feed.
	CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error)

	// GetVideo retrieves a video by ID.
	GetVideo(ctx context.Context, videoID string) (*model.Video, error)

	// RecordView counts one completed playback of a video.
	RecordView(ctx context.Context, videoID string) error
}

type videoService struct {
	repo    repository.VideoRepository
	storage repository.ObjectStorage
}

// NewVideoService creates a new VideoService instance.
// storage may be nil, in which case object keys are accepted without checking.
func NewVideoService(
	repo repository.VideoRepository,
	storage repository.ObjectStorage,
) VideoService {
	return &videoService{
		repo:    repo,
		storage: storage,
	}
}

func (s *videoService) ListVideos(ctx context.Context) ([]*model.Video, error) {
	videos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// CreateVideo validates the source and persists a new video.
func (s *videoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	video, err := model.NewVideo(input.SourceURL)
	if err != nil {
		return nil, err
	}

	if video.HasObjectKey() && s.storage != nil {
		exists, err := s.storage.Exists(ctx, video.SourceURL)
		if err != nil {
			return nil, fmt.Errorf("check source object: %w", err)
		}
		if !exists {
			return nil, ErrSourceObjectMissing
		}
	}

	if err := s.repo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	return video, nil
}

func (s *videoService) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	return s.repo.GetByID(ctx, videoID)
}

func (s *videoService) RecordView(ctx context.Context, videoID string) error {
	return s.repo.IncrementViews(ctx, videoID)
}
