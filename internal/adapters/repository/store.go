// Package repository holds the latest published detection result.
package repository

import (
	"context"
	"time"

	"github.com/okian/proctor/internal/domain/scoring"
	"github.com/okian/proctor/internal/domain/types"
)

// Snapshot is the published result of one scored frame.
type Snapshot struct {
	// Seq orders snapshots by ingest; a higher Seq is a newer frame.
	Seq         uint64
	FrameID     string
	CapturedAt  time.Time
	GeneratedAt time.Time
	Result      scoring.Result
}

// Empty reports whether no frame has been published yet.
func (s Snapshot) Empty() bool {
	return s.GeneratedAt.IsZero()
}

// Results converts the snapshot to its wire shape.
func (s Snapshot) Results() types.Results {
	out := types.Results{
		CheatingScore: s.Result.Score,
		Indicators:    s.Result.Labels(),
		WarningLevel:  s.Result.Level.String(),
		FrameID:       s.FrameID,
	}
	if out.WarningLevel == "" {
		out.WarningLevel = scoring.LevelSafe.String()
	}
	if !s.Empty() {
		ts := types.FormatTimestamp(s.GeneratedAt)
		out.Timestamp = &ts
	}
	return out
}

// Store is a single-writer, multi-reader cell for the latest result.
type Store interface {
	// Publish replaces the held snapshot. It returns false without error when
	// the held snapshot belongs to a frame ingested after s.
	Publish(ctx context.Context, s Snapshot) (bool, error)

	// Latest returns the held snapshot, or an empty one before the first publish.
	Latest(ctx context.Context) Snapshot

	// Count returns how many snapshots have been published.
	Count(ctx context.Context) int
}
