package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/usecase"
)

// FeedService is the feed session as seen by the player HTTP surface.
type FeedService interface {
	Snapshot() usecase.FeedSnapshot
	Ended(ctx context.Context, videoID string) (usecase.FeedSnapshot, error)
	Media(videoID string) (*model.Handle, error)
}

type EndedRequest struct {
	VideoID string `json:"video_id"`
}

type FeedResponse struct {
	State        string         `json:"state"`
	Error        string         `json:"error,omitempty"`
	Index        int            `json:"index"`
	Count        int            `json:"count"`
	Direction    string         `json:"direction"`
	Video        *VideoResponse `json:"video,omitempty"`
	Ready        bool           `json:"ready"`
	MediaURL     string         `json:"media_url,omitempty"`
	Overlay      *model.Overlay `json:"overlay,omitempty"`
	PlayingSince string         `json:"playing_since,omitempty"`
}

// FeedHandler serves the player's feed state and media.
type FeedHandler struct {
	feed FeedService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feed FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// Get handles GET /v1/feed
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, toFeedResponse(h.feed.Snapshot()))
}

// Ended handles POST /v1/feed/ended
func (h *FeedHandler) Ended(w http.ResponseWriter, r *http.Request) {
	var req EndedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	snap, err := h.feed.Ended(r.Context(), req.VideoID)
	if err != nil {
		h.handleFeedError(w, err)
		return
	}

	JSON(w, http.StatusOK, toFeedResponse(snap))
}

// Media handles GET /v1/videos/{id}/media
func (h *FeedHandler) Media(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	handle, err := h.feed.Media(videoID)
	if err != nil {
		h.handleFeedError(w, err)
		return
	}

	f, err := os.Open(handle.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			Error(w, http.StatusNotFound, "media_not_ready", "Media is not available")
			return
		}
		slog.Error("failed to open media", "video_id", videoID, "error", err)
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	defer f.Close()

	if handle.ContentType != "" {
		w.Header().Set("Content-Type", handle.ContentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, "", time.Time{}, f)
}

func (h *FeedHandler) handleFeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrStaleSignal):
		Error(w, http.StatusConflict, "stale_signal", "Video is no longer current")
	case errors.Is(err, usecase.ErrFeedNotReady):
		Error(w, http.StatusServiceUnavailable, "feed_not_ready", "Feed is not ready")
	case errors.Is(err, usecase.ErrFeedClosed):
		Error(w, http.StatusServiceUnavailable, "feed_closed", "Feed is shutting down")
	case errors.Is(err, usecase.ErrVideoNotInFeed):
		Error(w, http.StatusNotFound, "video_not_found", "Video is not part of the feed")
	case errors.Is(err, model.ErrHandleNotReady):
		Error(w, http.StatusNotFound, "media_not_ready", "Media is not available yet")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toFeedResponse(s usecase.FeedSnapshot) FeedResponse {
	resp := FeedResponse{
		State:     s.State.String(),
		Error:     s.Error,
		Index:     s.Index,
		Count:     s.Count,
		Direction: s.Direction.String(),
		Ready:     s.Ready,
		Overlay:   s.Overlay,
	}
	if s.Video != nil {
		v := toVideoResponse(s.Video)
		resp.Video = &v
		if s.Ready {
			resp.MediaURL = "/v1/videos/" + url.PathEscape(s.Video.ID) + "/media"
		}
	}
	if !s.PlayingSince.IsZero() {
		resp.PlayingSince = s.PlayingSince.UTC().Format(time.RFC3339)
	}
	return resp
}
