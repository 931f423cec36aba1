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

// PrefetchCacheConfig holds configuration for PrefetchCache.
type PrefetchCacheConfig struct {
	// FetchTimeout bounds a single retrieval. Zero means no limit.
	FetchTimeout time.Duration
}

// DefaultPrefetchCacheConfig returns the default configuration.
func DefaultPrefetchCacheConfig() PrefetchCacheConfig {
	return PrefetchCacheConfig{
		FetchTimeout: 2 * time.Minute,
	}
}

type cacheEntry struct {
	status model.EntryStatus
	handle *model.Handle
}

// PrefetchCache maps video identifiers to materialized handles.
//
// Entries are never evicted; handles live until ReleaseAll. At most one
// retrieval per identifier is in flight at any time. A failed retrieval
// removes its entry so a later EnsureFetched retries it.
type PrefetchCache struct {
	// ctx scopes background retrievals to the owning session.
	ctx          context.Context
	fetcher      repository.Fetcher
	store        repository.HandleStore
	fetchTimeout time.Duration

	mu       sync.Mutex
	entries  map[string]*cacheEntry
	released bool
	inflight sync.WaitGroup
}

// NewPrefetchCache creates a PrefetchCache whose retrievals run under ctx.
func NewPrefetchCache(
	ctx context.Context,
	fetcher repository.Fetcher,
	store repository.HandleStore,
	cfg PrefetchCacheConfig,
) *PrefetchCache {
	return &PrefetchCache{
		ctx:          ctx,
		fetcher:      fetcher,
		store:        store,
		fetchTimeout: cfg.FetchTimeout,
		entries:      make(map[string]*cacheEntry),
	}
}

// EnsureFetched starts a background retrieval of locator unless an entry for
// id already exists. It never blocks on I/O and never reports failures.
func (c *PrefetchCache) EnsureFetched(id, locator string) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	if _, ok := c.entries[id]; ok {
		c.mu.Unlock()
		metrics.PrefetchRetrievalsTotal.WithLabelValues(metrics.PrefetchDeduplicated).Inc()
		return
	}
	c.entries[id] = &cacheEntry{status: model.EntryPending}
	c.inflight.Add(1)
	c.mu.Unlock()

	metrics.PrefetchRetrievalsTotal.WithLabelValues(metrics.PrefetchInitiated).Inc()
	go c.retrieve(id, locator)
}

func (c *PrefetchCache) retrieve(id, locator string) {
	defer c.inflight.Done()

	handle, err := c.load(id, locator)

	c.mu.Lock()
	if err != nil {
		if entry, ok := c.entries[id]; ok && entry.status.CanTransitionTo(model.EntryAbsent) {
			delete(c.entries, id)
		}
		c.mu.Unlock()

		metrics.PrefetchRetrievalsTotal.WithLabelValues(metrics.PrefetchFailed).Inc()
		slog.Warn("prefetch failed",
			"video_id", id,
			"locator", locator,
			"error", err,
		)
		return
	}

	// Completed after teardown: nobody will release it later.
	if c.released {
		c.mu.Unlock()

		metrics.PrefetchRetrievalsTotal.WithLabelValues(metrics.PrefetchDiscarded).Inc()
		if err := c.store.Release(handle); err != nil {
			slog.Warn("failed to release late handle", "video_id", id, "error", err)
		}
		return
	}

	entry, ok := c.entries[id]
	if !ok || !entry.status.CanTransitionTo(model.EntryReady) {
		from := model.EntryAbsent
		if ok {
			from = entry.status
		}
		c.mu.Unlock()

		metrics.PrefetchRetrievalsTotal.WithLabelValues(metrics.PrefetchDiscarded).Inc()
		slog.Error("discarding handle after illegal entry transition",
			"video_id", id,
			"from", from,
			"to", model.EntryReady,
		)
		if err := c.store.Release(handle); err != nil {
			slog.Warn("failed to release discarded handle", "video_id", id, "error", err)
		}
		return
	}
	entry.status = model.EntryReady
	entry.handle = handle
	c.mu.Unlock()

	metrics.PrefetchRetrievalsTotal.WithLabelValues(metrics.PrefetchSucceeded).Inc()
	metrics.PrefetchBytesTotal.Add(float64(handle.Size))
	slog.Debug("prefetch completed",
		"video_id", id,
		"bytes", handle.Size,
	)
}

func (c *PrefetchCache) load(id, locator string) (*model.Handle, error) {
	ctx := c.ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	body, err := c.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer body.Close()

	handle, err := c.store.Materialize(ctx, id, body)
	if err != nil {
		return nil, fmt.Errorf("materialize: %w", err)
	}
	return handle, nil
}

// Resolve returns the handle for id once its retrieval has completed.
func (c *PrefetchCache) Resolve(id string) (*model.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok || entry.status != model.EntryReady {
		return nil, false
	}
	return entry.handle, true
}

// Status reports the retrieval state of id.
func (c *PrefetchCache) Status(id string) model.EntryStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return model.EntryAbsent
	}
	return entry.status
}

// Wait blocks until every retrieval started so far has finished.
func (c *PrefetchCache) Wait() {
	c.inflight.Wait()
}

// ReleaseAll releases every ready handle exactly once and stops accepting
// new retrievals. Retrievals still in flight release their own handle when
// they complete.
func (c *PrefetchCache) ReleaseAll() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true

	handles := make([]*model.Handle, 0, len(c.entries))
	for id, entry := range c.entries {
		if !entry.status.CanTransitionTo(model.EntryAbsent) {
			slog.Error("unexpected entry status at release", "video_id", id, "status", entry.status)
		}
		if entry.status == model.EntryReady {
			handles = append(handles, entry.handle)
		}
		delete(c.entries, id)
	}
	c.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := c.store.Release(h); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", h.VideoID, err))
		}
	}
	return errors.Join(errs...)
}
