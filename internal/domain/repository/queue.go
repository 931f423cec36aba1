package repository

import (
	"context"
	"time"
)

// PlaybackEvent is emitted once per playback-completed signal.
type PlaybackEvent struct {
	VideoID     string    `json:"video_id"`
	Index       int       `json:"index"`
	CompletedAt time.Time `json:"completed_at"`
	RetryCount  int       `json:"retry_count"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishPlaybackEvent sends a playback event to the queue.
	// Used by the player after each completed item.
	PublishPlaybackEvent(ctx context.Context, event PlaybackEvent) error

	// ConsumePlaybackEvents consumes playback events until ctx is cancelled.
	// The handler function is called for each received event.
	// Used by the worker service.
	ConsumePlaybackEvents(ctx context.Context, handler func(event PlaybackEvent) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
