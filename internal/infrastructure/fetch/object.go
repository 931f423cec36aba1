package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

// ObjectFetcher retrieves payloads addressed as s3://bucket/key from object storage.
type ObjectFetcher struct {
	storage repository.ObjectStorage
	bucket  string
}

// NewObjectFetcher creates an ObjectFetcher serving locators in bucket.
func NewObjectFetcher(storage repository.ObjectStorage, bucket string) *ObjectFetcher {
	return &ObjectFetcher{storage: storage, bucket: bucket}
}

// Fetch downloads the object named by locator.
func (f *ObjectFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, fmt.Errorf("parse locator: %w", err)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host != f.bucket || key == "" {
		return nil, fmt.Errorf("%w: %s", repository.ErrUnsupportedLocator, locator)
	}

	return f.storage.Download(ctx, key)
}
