// Package replay feeds landmark frames to a running proctor service, from a
// JSON-lines recording or a seeded synthetic session, and reports the result.
package replay

import (
	"time"

	"github.com/okian/proctor/internal/domain/types"
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL string        // Base URL of the service
	Input   string        // JSON-lines frame file; empty generates frames
	Frames  int           // Number of synthetic frames
	FPS     float64       // Submission rate; <= 0 sends as fast as possible
	Seed    int64         // Seed for synthetic frames
	Timeout time.Duration // HTTP request timeout
	Output  string        // Optional file to save the frames that were sent
	Settle  time.Duration // How long to wait for the last frame to be scored
	Verbose bool          // Log every frame
}

// Stats holds replay statistics.
type Stats struct {
	FramesLoaded int
	Submitted    int
	Accepted     int
	Duplicate    int
	Rejected     int
	Failed       int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}

// Report is the outcome of a run.
type Report struct {
	Stats Stats
	Final types.Results
	// Settled is true when the final result belongs to the last accepted frame.
	Settled bool
}
