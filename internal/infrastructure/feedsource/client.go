// Package feedsource reads the ordered video list from the list endpoint.
package feedsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
)

// maxListBytes bounds the list payload read into memory.
const maxListBytes = 16 << 20

// videoJSON is one element of the list endpoint's array.
type videoJSON struct {
	ID        string    `json:"_id"`
	VideoURL  string    `json:"videoUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Views     int64     `json:"views"`
	Downloads int64     `json:"downloads"`
}

// Client implements repository.VideoSource over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a Client for the list endpoint at url.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, httpClient: httpClient}
}

// FetchVideos performs one GET against the list endpoint.
// Entries that fail validation or repeat an earlier identifier are skipped
// with a warning; the remaining order is preserved.
func (c *Client) FetchVideos(ctx context.Context) ([]model.Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch video list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch video list: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListBytes))
	if err != nil {
		return nil, fmt.Errorf("read video list: %w", err)
	}

	return decodeList(body)
}

func decodeList(body []byte) ([]model.Video, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode video list: %w", err)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, repository.ErrInvalidResponseFormat
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode video list: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	videos := make([]model.Video, 0, len(items))
	for i, elem := range items {
		var item videoJSON
		if err := json.Unmarshal(elem, &item); err != nil {
			slog.Warn("skipping invalid video descriptor",
				"position", i,
				"error", err,
			)
			continue
		}

		v := model.Video{
			ID:        item.ID,
			SourceURL: item.VideoURL,
			CreatedAt: item.CreatedAt,
			Views:     item.Views,
			Downloads: item.Downloads,
		}
		if err := v.Validate(); err != nil {
			slog.Warn("skipping invalid video descriptor",
				"position", i,
				"video_id", item.ID,
				"error", err,
			)
			continue
		}
		if _, dup := seen[v.ID]; dup {
			slog.Warn("skipping duplicate video descriptor",
				"position", i,
				"video_id", v.ID,
			)
			continue
		}
		seen[v.ID] = struct{}{}
		videos = append(videos, v)
	}

	return videos, nil
}

var _ repository.VideoSource = (*Client)(nil)
