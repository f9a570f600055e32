// Package repository holds the latest published detection result.
package repository

import "time"

// Option applies a configuration option to the AtomicStore.
type Option func(*AtomicStore)

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *AtomicStore) {
		if now != nil {
			s.now = now
		}
	}
}
