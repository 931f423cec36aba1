package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/infrastructure/metrics"
)

// Prefetcher requests background retrieval of a video payload.
type Prefetcher interface {
	EnsureFetched(id, locator string)
}

// Slide is the item the presenter is asked to show.
type Slide struct {
	Video     model.Video
	Index     int
	Count     int
	Direction model.Direction
}

// Presenter starts playback of the current slide.
// A returned error means autoplay was declined; it is logged and otherwise ignored.
type Presenter interface {
	Present(ctx context.Context, slide Slide) error
}

// SequencerSnapshot is a point-in-time view of the sequence.
type SequencerSnapshot struct {
	Index     int
	Count     int
	Direction model.Direction
	Video     *model.Video
}

// Sequencer tracks the current position in a looping, append-only sequence
// of videos and keeps the current and next payloads prefetched.
type Sequencer struct {
	prefetch  Prefetcher
	presenter Presenter

	// opMu serializes mutations together with their side effects so
	// completion signals are applied in arrival order.
	opMu sync.Mutex

	mu        sync.RWMutex
	videos    []model.Video
	index     int
	direction model.Direction
	started   bool
}

// NewSequencer creates a Sequencer. presenter may be nil.
func NewSequencer(prefetch Prefetcher, presenter Presenter) *Sequencer {
	return &Sequencer{
		prefetch:  prefetch,
		presenter: presenter,
	}
}

// Start installs the initial sequence and shows its first item.
// Calling Start more than once has no effect.
func (s *Sequencer) Start(ctx context.Context, videos []model.Video) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.videos = append([]model.Video(nil), videos...)
	s.index = 0
	s.direction = model.DirectionForward
	s.mu.Unlock()

	if len(videos) > 0 {
		s.onIndexChange(ctx)
	}
}

// Advance moves to the next item, wrapping to the first after the last.
// It returns the new index, or false when the sequence is empty.
func (s *Sequencer) Advance(ctx context.Context) (int, bool) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if len(s.videos) == 0 {
		s.mu.Unlock()
		return 0, false
	}
	s.index = (s.index + 1) % len(s.videos)
	s.direction = model.DirectionForward
	index := s.index
	s.mu.Unlock()

	metrics.SequencerAdvancesTotal.Inc()
	s.onIndexChange(ctx)
	return index, true
}

// Append grows the sequence. Every appended item is prefetched in the
// background; the current index is left unchanged. Appending to an empty
// started sequence shows its new first item.
func (s *Sequencer) Append(ctx context.Context, videos ...model.Video) {
	if len(videos) == 0 {
		return
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	wasEmpty := len(s.videos) == 0
	s.videos = append(s.videos, videos...)
	show := s.started && wasEmpty
	s.mu.Unlock()

	for _, v := range videos {
		s.prefetch.EnsureFetched(v.ID, v.SourceURL)
	}

	if show {
		s.onIndexChange(ctx)
	}
}

// Current returns the current item and its index.
func (s *Sequencer) Current() (model.Video, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.videos) == 0 {
		return model.Video{}, 0, false
	}
	return s.videos[s.index], s.index, true
}

// Len returns the number of items in the sequence.
func (s *Sequencer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// Snapshot returns the current position of the sequence.
func (s *Sequencer) Snapshot() SequencerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SequencerSnapshot{
		Index:     s.index,
		Count:     len(s.videos),
		Direction: s.direction,
	}
	if len(s.videos) > 0 {
		v := s.videos[s.index]
		snap.Video = &v
	}
	return snap
}

// onIndexChange prefetches the current and next items, then asks the
// presenter to play the current one. Callers must hold opMu.
func (s *Sequencer) onIndexChange(ctx context.Context) {
	s.mu.RLock()
	n := len(s.videos)
	current := s.videos[s.index]
	next := s.videos[(s.index+1)%n]
	slide := Slide{
		Video:     current,
		Index:     s.index,
		Count:     n,
		Direction: s.direction,
	}
	s.mu.RUnlock()

	s.prefetch.EnsureFetched(current.ID, current.SourceURL)
	s.prefetch.EnsureFetched(next.ID, next.SourceURL)

	if s.presenter == nil {
		return
	}
	if err := s.presenter.Present(ctx, slide); err != nil {
		metrics.AutoplayRejectionsTotal.Inc()
		slog.Warn("autoplay failed",
			"video_id", current.ID,
			"index", slide.Index,
			"error", err,
		)
	}
}
