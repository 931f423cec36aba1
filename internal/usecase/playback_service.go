package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

// PlaybackService defines the interface for processing playback events.
type PlaybackService interface {
	// ProcessEvent handles a playback event from the message queue.
	// Returns nil on success or when the event can never succeed.
	// Returns an error for transient failures that should trigger a retry.
	ProcessEvent(ctx context.Context, event repository.PlaybackEvent) error
}

type playbackService struct {
	videos VideoService
}

// NewPlaybackService creates a new PlaybackService instance.
func NewPlaybackService(videos VideoService) PlaybackService {
	return &playbackService{videos: videos}
}

// ProcessEvent records one view for the completed video.
func (s *playbackService) ProcessEvent(ctx context.Context, event repository.PlaybackEvent) error {
	if event.VideoID == "" {
		slog.Warn("dropping playback event without video id",
			"index", event.Index,
		)
		return nil
	}

	err := s.videos.RecordView(ctx, event.VideoID)
	if errors.Is(err, repository.ErrVideoNotFound) {
		slog.Warn("dropping playback event for unknown video",
			"video_id", event.VideoID,
			"retry_count", event.RetryCount,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}

	slog.Info("view recorded",
		"video_id", event.VideoID,
		"index", event.Index,
		"completed_at", event.CompletedAt,
	)
	return nil
}
