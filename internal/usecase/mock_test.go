package usecase

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createFn         func(ctx context.Context, video *model.Video) error
	getByIDFn        func(ctx context.Context, id string) (*model.Video, error)
	listFn           func(ctx context.Context) ([]*model.Video, error)
	incrementViewsFn func(ctx context.Context, id string) error
}

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockVideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) IncrementViews(ctx context.Context, id string) error {
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, id)
	}
	return nil
}

// mockObjectStorage provides a configurable mock for ObjectStorage.
type mockObjectStorage struct {
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	downloadFn                     func(ctx context.Context, key string) (io.ReadCloser, error)
	existsFn                       func(ctx context.Context, key string) (bool, error)
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return "https://storage.example.com/" + key + "?signed=1", nil
}

func (m *mockObjectStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, key)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

// mockFetcher counts retrievals per locator and serves a fixed payload.
type mockFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	fetchFn func(ctx context.Context, locator string) (io.ReadCloser, error)
	// block, when set, holds every fetch until it is closed.
	block chan struct{}
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{calls: make(map[string]int)}
}

func (m *mockFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.calls[locator]++
	m.mu.Unlock()

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.fetchFn != nil {
		return m.fetchFn(ctx, locator)
	}
	return io.NopCloser(strings.NewReader("payload:" + locator)), nil
}

func (m *mockFetcher) Calls(locator string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[locator]
}

func (m *mockFetcher) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// mockHandleStore keeps handles in memory and records releases.
type mockHandleStore struct {
	mu            sync.Mutex
	released      map[string]int
	materializeFn func(ctx context.Context, videoID string, r io.Reader) (*model.Handle, error)
}

func newMockHandleStore() *mockHandleStore {
	return &mockHandleStore{released: make(map[string]int)}
}

func (m *mockHandleStore) Materialize(ctx context.Context, videoID string, r io.Reader) (*model.Handle, error) {
	if m.materializeFn != nil {
		return m.materializeFn(ctx, videoID, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &model.Handle{
		VideoID:     videoID,
		Path:        "/spool/" + videoID,
		Size:        int64(len(data)),
		ContentType: "video/mp4",
	}, nil
}

func (m *mockHandleStore) Release(handle *model.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released[handle.VideoID]++
	return nil
}

func (m *mockHandleStore) Released(videoID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released[videoID]
}

// recordingPrefetcher records EnsureFetched calls in order.
type recordingPrefetcher struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingPrefetcher) EnsureFetched(id, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recordingPrefetcher) Requested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func (r *recordingPrefetcher) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = nil
}

// mockPresenter records presented slides.
type mockPresenter struct {
	mu        sync.Mutex
	slides    []Slide
	presentFn func(ctx context.Context, slide Slide) error
}

func (m *mockPresenter) Present(ctx context.Context, slide Slide) error {
	m.mu.Lock()
	m.slides = append(m.slides, slide)
	m.mu.Unlock()
	if m.presentFn != nil {
		return m.presentFn(ctx, slide)
	}
	return nil
}

func (m *mockPresenter) Slides() []Slide {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Slide(nil), m.slides...)
}

// mockVideoSource serves canned list responses.
type mockVideoSource struct {
	fetchCount    atomic.Int32
	fetchVideosFn func(ctx context.Context) ([]model.Video, error)
}

func (m *mockVideoSource) FetchVideos(ctx context.Context) ([]model.Video, error) {
	m.fetchCount.Add(1)
	if m.fetchVideosFn != nil {
		return m.fetchVideosFn(ctx)
	}
	return []model.Video{}, nil
}

// mockEventPublisher records published playback events.
type mockEventPublisher struct {
	mu        sync.Mutex
	events    []repository.PlaybackEvent
	publishFn func(ctx context.Context, event repository.PlaybackEvent) error
}

func (m *mockEventPublisher) PublishPlaybackEvent(ctx context.Context, event repository.PlaybackEvent) error {
	if m.publishFn != nil {
		if err := m.publishFn(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) Events() []repository.PlaybackEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.PlaybackEvent(nil), m.events...)
}

func testVideos(ids ...string) []model.Video {
	videos := make([]model.Video, 0, len(ids))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		videos = append(videos, model.Video{
			ID:        id,
			SourceURL: "https://cdn.example.com/" + id + ".mp4",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return videos
}
