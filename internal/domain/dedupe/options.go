// Package dedupe tracks recently seen frame ids.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*ringDeduper)

// WithMaxSize sets how many frame ids are remembered.
// If maxSize > 0 the oldest id is forgotten first once the window is full.
// If maxSize <= 0 ids are never forgotten.
func WithMaxSize(maxSize int) Option {
	return func(d *ringDeduper) {
		d.maxSize = maxSize
	}
}
