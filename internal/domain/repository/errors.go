package repository

import "errors"

var (
	// ErrVideoNotFound is returned when a video cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrDuplicateVideo is returned when attempting to create a video that already exists.
	ErrDuplicateVideo = errors.New("video already exists")

	// ErrObjectNotFound is returned when a stored object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrInvalidResponseFormat is returned when the list endpoint does not return an array.
	ErrInvalidResponseFormat = errors.New("invalid response format")

	// ErrUnsupportedLocator is returned when no fetcher handles a locator's scheme.
	ErrUnsupportedLocator = errors.New("unsupported source locator")
)
