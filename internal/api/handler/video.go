package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/domain/repository"
	"github.com/hszk-dev/reelstream/internal/usecase"
)

// Request/Response types

type CreateVideoRequest struct {
	VideoURL string `json:"videoUrl"`
}

// VideoResponse is the descriptor format consumed by feed players.
type VideoResponse struct {
	ID        string `json:"_id"`
	VideoURL  string `json:"videoUrl"`
	CreatedAt string `json:"createdAt"`
	Views     int64  `json:"views"`
	Downloads int64  `json:"downloads"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc usecase.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// List handles GET /v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.svc.ListVideos(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, toVideoResponse(v))
	}
	JSON(w, http.StatusOK, resp)
}

// Create handles POST /v1/videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.VideoURL == "" {
		Error(w, http.StatusBadRequest, "invalid_video_url", "videoUrl is required")
		return
	}

	video, err := h.svc.CreateVideo(r.Context(), usecase.CreateVideoInput{
		SourceURL: req.VideoURL,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, toVideoResponse(video))
}

// Get handles GET /v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	if videoID == "" {
		Error(w, http.StatusBadRequest, "invalid_video_id", "Video ID is required")
		return
	}

	video, err := h.svc.GetVideo(r.Context(), videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "video_not_found", "Video not found")
	case errors.Is(err, repository.ErrDuplicateVideo):
		Error(w, http.StatusConflict, "video_exists", "Video already exists")
	case errors.Is(err, model.ErrEmptySourceURL):
		Error(w, http.StatusBadRequest, "invalid_video_url", "videoUrl cannot be empty")
	case errors.Is(err, model.ErrInvalidSourceURL):
		Error(w, http.StatusBadRequest, "invalid_video_url", "videoUrl is not a valid URI")
	case errors.Is(err, model.ErrSourceURLTooLong):
		Error(w, http.StatusBadRequest, "invalid_video_url", "videoUrl exceeds maximum length")
	case errors.Is(err, usecase.ErrSourceObjectMissing):
		Error(w, http.StatusUnprocessableEntity, "source_not_found", "Source object does not exist")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toVideoResponse(v *model.Video) VideoResponse {
	return VideoResponse{
		ID:        v.ID,
		VideoURL:  v.SourceURL,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		Views:     v.Views,
		Downloads: v.Downloads,
	}
}
