package preprocess

import "errors"

var (
	// ErrParseFailed is returned when the compiler rejects a source file or
	// returns no output name for it
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidOutputPath is returned when an output name resolves outside
	// the compiled-output root
	ErrInvalidOutputPath = errors.New("invalid output path")
)
