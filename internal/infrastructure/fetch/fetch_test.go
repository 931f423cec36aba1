package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

type mockObjectStorage struct {
	downloadFn func(ctx context.Context, key string) (io.ReadCloser, error)
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", nil
}

func (m *mockObjectStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, key)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.mp4":
			_, _ = w.Write([]byte("video-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())

	t.Run("ok", func(t *testing.T) {
		rc, err := f.Fetch(context.Background(), srv.URL+"/a.mp4")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		defer rc.Close()

		body, _ := io.ReadAll(rc)
		if string(body) != "video-bytes" {
			t.Errorf("body = %q, want video-bytes", body)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing.mp4")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("Fetch() error = %v, want %v", err, ErrUnexpectedStatus)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := f.Fetch(ctx, srv.URL+"/a.mp4"); err == nil {
			t.Error("Fetch() expected error for cancelled context")
		}
	})
}

func TestObjectFetcher_Fetch(t *testing.T) {
	var gotKey string
	storage := &mockObjectStorage{
		downloadFn: func(ctx context.Context, key string) (io.ReadCloser, error) {
			gotKey = key
			return io.NopCloser(strings.NewReader("object-bytes")), nil
		},
	}
	f := NewObjectFetcher(storage, "videos")

	tests := []struct {
		name    string
		locator string
		wantKey string
		wantErr error
	}{
		{name: "matching bucket", locator: "s3://videos/originals/a.mp4", wantKey: "originals/a.mp4"},
		{name: "other bucket", locator: "s3://private/a.mp4", wantErr: repository.ErrUnsupportedLocator},
		{name: "missing key", locator: "s3://videos/", wantErr: repository.ErrUnsupportedLocator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey = ""
			rc, err := f.Fetch(context.Background(), tt.locator)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			rc.Close()
			if gotKey != tt.wantKey {
				t.Errorf("downloaded key = %q, want %q", gotKey, tt.wantKey)
			}
		})
	}
}

type stubFetcher struct {
	name  string
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	s.calls++
	return io.NopCloser(strings.NewReader(s.name)), nil
}

func TestRouter_Fetch(t *testing.T) {
	web := &stubFetcher{name: "web"}
	obj := &stubFetcher{name: "obj"}
	r := NewRouter().Handle(web, "http", "https").Handle(obj, "s3")

	for _, locator := range []string{"https://cdn.example.com/a.mp4", "HTTP://cdn.example.com/a.mp4"} {
		if _, err := r.Fetch(context.Background(), locator); err != nil {
			t.Fatalf("Fetch(%q) error = %v", locator, err)
		}
	}
	if _, err := r.Fetch(context.Background(), "s3://videos/a.mp4"); err != nil {
		t.Fatalf("Fetch(s3) error = %v", err)
	}

	if web.calls != 2 || obj.calls != 1 {
		t.Errorf("calls = (web %d, obj %d), want (2, 1)", web.calls, obj.calls)
	}

	if _, err := r.Fetch(context.Background(), "ftp://example.com/a.mp4"); !errors.Is(err, repository.ErrUnsupportedLocator) {
		t.Errorf("Fetch(ftp) error = %v, want %v", err, repository.ErrUnsupportedLocator)
	}
}
