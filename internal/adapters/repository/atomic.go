package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/proctor/pkg/metrics"
)

// AtomicStore implements Store with a lock-free pointer swap. Readers always
// see a whole snapshot; a publish never mutates a snapshot already handed out.
type AtomicStore struct {
	current atomic.Pointer[Snapshot]
	count   atomic.Int64
	now     func() time.Time
}

// NewAtomicStore creates an empty store.
func NewAtomicStore(opts ...Option) *AtomicStore {
	s := &AtomicStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish swaps in snap unless a frame ingested later is already held.
// Ordering uses Seq, never the client-supplied capture time.
func (s *AtomicStore) Publish(_ context.Context, snap Snapshot) (bool, error) { //nolint:gocritic // hugeParam: snapshot is copied into the cell
	if snap.FrameID == "" {
		return false, ErrEmptyFrameID
	}
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = s.now()
	}

	next := &snap
	for {
		cur := s.current.Load()
		if cur != nil && snap.Seq < cur.Seq {
			metrics.RecordSnapshotStale()
			return false, nil
		}
		if s.current.CompareAndSwap(cur, next) {
			break
		}
	}

	s.count.Add(1)
	metrics.RecordSnapshotPublished(snap.Result.Score)
	return true, nil
}

// Latest returns the held snapshot.
func (s *AtomicStore) Latest(_ context.Context) Snapshot {
	if cur := s.current.Load(); cur != nil {
		return *cur
	}
	return Snapshot{}
}

// Count returns the number of successful publishes.
func (s *AtomicStore) Count(_ context.Context) int {
	return int(s.count.Load())
}
