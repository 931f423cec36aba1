package model

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Video describes one playable item of the feed.
// A Video is immutable once it has been received from the list endpoint.
type Video struct {
	ID        string
	SourceURL string
	CreatedAt time.Time
	Views     int64
	Downloads int64
}

var (
	ErrEmptyID          = errors.New("video ID cannot be empty")
	ErrEmptySourceURL   = errors.New("source URL cannot be empty")
	ErrInvalidSourceURL = errors.New("source URL is not a valid URI")
	ErrSourceURLTooLong = errors.New("source URL exceeds maximum length of 2048 characters")
)

const maxSourceURLLength = 2048

// NewVideo creates a new Video with a generated identifier and zeroed counters.
func NewVideo(sourceURL string) (*Video, error) {
	v := &Video{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		CreatedAt: time.Now(),
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks the descriptor invariants required for playback.
func (v *Video) Validate() error {
	if v.ID == "" {
		return ErrEmptyID
	}
	if v.SourceURL == "" {
		return ErrEmptySourceURL
	}
	if len(v.SourceURL) > maxSourceURLLength {
		return ErrSourceURLTooLong
	}
	if _, err := url.Parse(v.SourceURL); err != nil {
		return ErrInvalidSourceURL
	}
	return nil
}

// HasObjectKey reports whether SourceURL is a bare storage key rather than an
// absolute URI. Such locators are rewritten to download URLs before leaving the API.
func (v *Video) HasObjectKey() bool {
	u, err := url.Parse(v.SourceURL)
	if err != nil {
		return false
	}
	return u.Scheme == ""
}
