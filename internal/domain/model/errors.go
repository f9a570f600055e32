package model

import "errors"

// ErrInvalidFrame marks a frame that cannot be scored.
var ErrInvalidFrame = errors.New("invalid frame")
