package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
	"github.com/hszk-dev/reelstream/internal/infrastructure/cache"
	"github.com/hszk-dev/reelstream/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

const listFlightKey = "videos:list"

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// ListTTL is the TTL for the cached video list.
	ListTTL time.Duration
	// URLExpiry is the validity of presigned download URLs.
	URLExpiry time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		ListTTL:   30 * time.Second,
		URLExpiry: time.Hour,
	}
}

// cachedVideoService wraps VideoService with list caching and download URL signing.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoListCache
	storage  repository.ObjectStorage
	sfGroup  singleflight.Group

	listTTL   time.Duration
	urlExpiry time.Duration
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
// storage may be nil, in which case source locators are returned as stored.
func NewCachedVideoService(
	delegate VideoService,
	listCache cache.VideoListCache,
	storage repository.ObjectStorage,
	cfg CachedVideoServiceConfig,
) VideoService {
	return &cachedVideoService{
		delegate:  delegate,
		cache:     listCache,
		storage:   storage,
		listTTL:   cfg.ListTTL,
		urlExpiry: cfg.URLExpiry,
	}
}

// ListVideos returns the feed list through the cache.
// Concurrent misses are coalesced into one database read.
func (s *cachedVideoService) ListVideos(ctx context.Context) ([]*model.Video, error) {
	result, err, shared := s.sfGroup.Do(listFlightKey, func() (any, error) {
		return s.listWithCache(ctx)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	videos := result.([]*model.Video)
	out := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		signed, err := s.signSource(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, signed)
	}
	return out, nil
}

// listWithCache implements the cache-aside pattern.
func (s *cachedVideoService) listWithCache(ctx context.Context) ([]*model.Video, error) {
	videos, err := s.cache.Get(ctx)
	if err != nil {
		slog.Warn("cache get failed, falling back to database", "error", err)
	}

	if videos != nil {
		return videos, nil
	}

	videos, err = s.delegate.ListVideos(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, videos, s.listTTL); err != nil {
		slog.Warn("failed to cache video list",
			"count", len(videos),
			"error", err,
		)
	}

	return videos, nil
}

// CreateVideo delegates and invalidates the cached list.
func (s *cachedVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	video, err := s.delegate.CreateVideo(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, video.ID)
	return s.signSource(ctx, video)
}

// GetVideo is not cached; only the source locator is signed.
func (s *cachedVideoService) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	video, err := s.delegate.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return s.signSource(ctx, video)
}

// RecordView delegates and invalidates the cached list so view counts stay fresh.
func (s *cachedVideoService) RecordView(ctx context.Context, videoID string) error {
	if err := s.delegate.RecordView(ctx, videoID); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

func (s *cachedVideoService) invalidate(ctx context.Context, videoID string) {
	if err := s.cache.Delete(ctx); err != nil {
		slog.Warn("failed to invalidate video list cache",
			"video_id", videoID,
			"error", err,
		)
	}
}

// signSource rewrites a bare object key into a presigned download URL.
// Returns a copy to avoid mutating cached data.
func (s *cachedVideoService) signSource(ctx context.Context, video *model.Video) (*model.Video, error) {
	if s.storage == nil || !video.HasObjectKey() {
		return video, nil
	}

	url, err := s.storage.GeneratePresignedDownloadURL(ctx, video.SourceURL, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign source %s: %w", video.ID, err)
	}

	signed := *video
	signed.SourceURL = url
	return &signed, nil
}
