package resultlog

import "time"

// Option configures a Log.
type Option func(*Log)

// WithMaxSizeMB sets the size in megabytes at which the file is rotated.
func WithMaxSizeMB(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.writer.MaxSize = n
		}
	}
}

// WithMaxBackups caps the number of rotated files kept.
func WithMaxBackups(n int) Option {
	return func(l *Log) {
		if n >= 0 {
			l.writer.MaxBackups = n
		}
	}
}

// WithMaxAgeDays removes rotated files older than n days. Zero keeps them.
func WithMaxAgeDays(n int) Option {
	return func(l *Log) {
		if n >= 0 {
			l.writer.MaxAge = n
		}
	}
}

// WithCompress gzips rotated files.
func WithCompress(on bool) Option {
	return func(l *Log) {
		l.writer.Compress = on
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}
