package replay

import "errors"

var (
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrNoFrames is returned when there is nothing to send.
	ErrNoFrames = errors.New("no frames to replay")
)
