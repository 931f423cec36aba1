package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
	"github.com/hszk-dev/reelstream/internal/infrastructure/metrics"
)

var (
	// ErrFeedNotReady is returned when the feed has not loaded any videos.
	ErrFeedNotReady = errors.New("feed is not ready")
	// ErrFeedClosed is returned after the session has been torn down.
	ErrFeedClosed = errors.New("feed session is closed")
	// ErrStaleSignal is returned when a completion signal names a video that is no longer current.
	ErrStaleSignal = errors.New("playback signal does not match the current video")
	// ErrVideoNotInFeed is returned when a video is not part of this session's feed.
	ErrVideoNotInFeed = errors.New("video is not part of the feed")
)

// EventPublisher emits playback events for downstream processing.
type EventPublisher interface {
	PublishPlaybackEvent(ctx context.Context, event repository.PlaybackEvent) error
}

// FeedSessionConfig holds configuration for FeedSession.
type FeedSessionConfig struct {
	// PublishTimeout bounds a single playback event publish.
	PublishTimeout time.Duration
}

// DefaultFeedSessionConfig returns the default configuration.
func DefaultFeedSessionConfig() FeedSessionConfig {
	return FeedSessionConfig{
		PublishTimeout: 5 * time.Second,
	}
}

// FeedSnapshot is the user-visible state of a feed session.
type FeedSnapshot struct {
	State        model.FeedState
	Error        string
	Index        int
	Count        int
	Direction    model.Direction
	Video        *model.Video
	Ready        bool
	Overlay      *model.Overlay
	PlayingSince time.Time
}

// FeedSession drives one viewer's feed: it loads the list once, plays it in a
// loop and keeps upcoming payloads prefetched.
type FeedSession struct {
	source    repository.VideoSource
	cache     *PrefetchCache
	sequencer *Sequencer
	events    EventPublisher
	overlays  OverlayProvider

	publishTimeout time.Duration

	// loadMu serializes list requests.
	loadMu sync.Mutex
	// signalMu makes the stale check and the advance one step.
	signalMu sync.Mutex

	mu           sync.RWMutex
	state        model.FeedState
	loadErr      string
	seen         map[string]struct{}
	playing      string
	playingSince time.Time
	closed       bool
}

// NewFeedSession creates a FeedSession. events and overlays may be nil.
func NewFeedSession(
	source repository.VideoSource,
	cache *PrefetchCache,
	events EventPublisher,
	overlays OverlayProvider,
	cfg FeedSessionConfig,
) *FeedSession {
	s := &FeedSession{
		source:         source,
		cache:          cache,
		events:         events,
		overlays:       overlays,
		publishTimeout: cfg.PublishTimeout,
		state:          model.FeedStateLoading,
		seen:           make(map[string]struct{}),
	}
	s.sequencer = NewSequencer(cache, s)
	return s
}

// Load requests the video list once and starts playback on success.
// Failures put the session into the error state; nothing is retried.
func (s *FeedSession) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrFeedClosed
	}
	if s.state == model.FeedStateReady {
		s.mu.Unlock()
		return nil
	}
	s.state = model.FeedStateLoading
	s.loadErr = ""
	s.mu.Unlock()

	videos, err := s.source.FetchVideos(ctx)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, repository.ErrInvalidResponseFormat) {
			msg = repository.ErrInvalidResponseFormat.Error()
		}

		s.mu.Lock()
		s.state = model.FeedStateError
		s.loadErr = msg
		s.mu.Unlock()

		slog.Error("failed to load feed", "error", err)
		return fmt.Errorf("load feed: %w", err)
	}

	s.mu.Lock()
	for _, v := range videos {
		s.seen[v.ID] = struct{}{}
	}
	s.state = model.FeedStateReady
	s.mu.Unlock()

	slog.Info("feed loaded", "count", len(videos))
	s.sequencer.Start(ctx, videos)
	return nil
}

// Refresh polls the list endpoint again and appends videos not seen before.
// It returns the number of appended videos. The feed stays playable on error.
func (s *FeedSession) Refresh(ctx context.Context) (int, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.RLock()
	state, closed := s.state, s.closed
	s.mu.RUnlock()
	if closed {
		return 0, ErrFeedClosed
	}
	if state != model.FeedStateReady {
		return 0, ErrFeedNotReady
	}

	videos, err := s.source.FetchVideos(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh feed: %w", err)
	}

	s.mu.Lock()
	fresh := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if _, ok := s.seen[v.ID]; ok {
			continue
		}
		s.seen[v.ID] = struct{}{}
		fresh = append(fresh, v)
	}
	s.mu.Unlock()

	if len(fresh) > 0 {
		s.sequencer.Append(ctx, fresh...)
		slog.Info("feed extended", "added", len(fresh), "count", s.sequencer.Len())
	}
	return len(fresh), nil
}

// RunRefresh calls Refresh every interval until ctx is cancelled.
func (s *FeedSession) RunRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrFeedNotReady) {
				slog.Warn("feed refresh failed", "error", err)
			}
		}
	}
}

// Ended handles a playback-completed signal for videoID and advances the feed.
// An empty videoID applies to whatever is current.
func (s *FeedSession) Ended(ctx context.Context, videoID string) (FeedSnapshot, error) {
	s.signalMu.Lock()
	defer s.signalMu.Unlock()

	s.mu.RLock()
	state, closed := s.state, s.closed
	s.mu.RUnlock()
	if closed {
		return FeedSnapshot{}, ErrFeedClosed
	}
	if state != model.FeedStateReady {
		return FeedSnapshot{}, ErrFeedNotReady
	}

	current, index, ok := s.sequencer.Current()
	if !ok {
		return FeedSnapshot{}, ErrFeedNotReady
	}
	if videoID != "" && videoID != current.ID {
		return FeedSnapshot{}, ErrStaleSignal
	}

	s.sequencer.Advance(ctx)
	s.publish(ctx, repository.PlaybackEvent{
		VideoID:     current.ID,
		Index:       index,
		CompletedAt: time.Now().UTC(),
	})

	return s.Snapshot(), nil
}

func (s *FeedSession) publish(ctx context.Context, event repository.PlaybackEvent) {
	if s.events == nil {
		return
	}

	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
	}

	if err := s.events.PublishPlaybackEvent(ctx, event); err != nil {
		metrics.PlaybackEventsTotal.WithLabelValues(metrics.PlaybackPublishFailed).Inc()
		slog.Warn("failed to publish playback event",
			"video_id", event.VideoID,
			"error", err,
		)
		return
	}
	metrics.PlaybackEventsTotal.WithLabelValues(metrics.PlaybackPublished).Inc()
}

// Present records the start of playback for a slide.
func (s *FeedSession) Present(_ context.Context, slide Slide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrFeedClosed
	}
	s.playing = slide.Video.ID
	s.playingSince = time.Now()
	return nil
}

// Snapshot returns the current feed state.
func (s *FeedSession) Snapshot() FeedSnapshot {
	s.mu.RLock()
	snap := FeedSnapshot{
		State: s.state,
		Error: s.loadErr,
	}
	playing, since := s.playing, s.playingSince
	s.mu.RUnlock()

	if snap.State != model.FeedStateReady {
		return snap
	}

	seq := s.sequencer.Snapshot()
	snap.Index = seq.Index
	snap.Count = seq.Count
	snap.Direction = seq.Direction
	snap.Video = seq.Video

	if seq.Video != nil {
		_, snap.Ready = s.cache.Resolve(seq.Video.ID)
		if s.overlays != nil {
			o := s.overlays.OverlayFor(*seq.Video)
			snap.Overlay = &o
		}
		if playing == seq.Video.ID {
			snap.PlayingSince = since
		}
	}
	return snap
}

// Media returns the materialized payload of a video in this feed.
func (s *FeedSession) Media(videoID string) (*model.Handle, error) {
	s.mu.RLock()
	_, ok := s.seen[videoID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrVideoNotInFeed
	}

	handle, ok := s.cache.Resolve(videoID)
	if !ok {
		return nil, model.ErrHandleNotReady
	}
	return handle, nil
}

// Close tears the session down and releases every retrieved payload.
func (s *FeedSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return s.cache.ReleaseAll()
}
