package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrEmptyFrameID = errors.New("snapshot has no frame id")
)
