package artifacts

import "errors"

var (
	// ErrWriteFailed is returned when an artifact cannot be persisted
	ErrWriteFailed = errors.New("write failed")

	// ErrOutputCollision is returned when two sources resolve to the same
	// output path in one run
	ErrOutputCollision = errors.New("output collision")
)
