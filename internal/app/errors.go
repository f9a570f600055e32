package service

import "errors"

var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrResultsLogDisabled is returned by SaveResult without a results log.
	ErrResultsLogDisabled = errors.New("results log not configured")
)
