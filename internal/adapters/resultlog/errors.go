package resultlog

import "errors"

var (
	// ErrClosed is returned when appending to a closed log.
	ErrClosed = errors.New("results log closed")
	// ErrInvalidJSON is returned when the payload is not valid JSON.
	ErrInvalidJSON = errors.New("payload is not valid JSON")
)
