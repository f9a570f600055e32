// Package resultlog appends client-submitted results to a rotating
// JSON-lines file.
package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/okian/proctor/internal/domain/types"
	"github.com/okian/proctor/pkg/metrics"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
	defaultMaxAgeDays = 7
)

// Appender persists one result payload.
type Appender interface {
	Append(ctx context.Context, data json.RawMessage) error
}

// entry is one line of the log.
type entry struct {
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Log writes entries through lumberjack, one JSON object per line.
type Log struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
	now    func() time.Time
	closed bool
}

// New opens (lazily) a results log at path.
func New(path string, opts ...Option) *Log {
	l := &Log{
		writer: &lumberjack.Logger{
			Filename:   path,
			LocalTime:  true,
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAgeDays,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append writes {"timestamp":..., "data":...} followed by a newline.
func (l *Log) Append(ctx context.Context, data json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(data) {
		metrics.RecordResultSaveError()
		return ErrInvalidJSON
	}

	line, err := json.Marshal(entry{
		Timestamp: types.FormatTimestamp(l.now()),
		Data:      data,
	})
	if err != nil {
		metrics.RecordResultSaveError()
		return fmt.Errorf("encode entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, err := l.writer.Write(line); err != nil {
		metrics.RecordResultSaveError()
		return fmt.Errorf("write results log: %w", err)
	}
	metrics.RecordResultSaved()
	return nil
}

// Path returns the active file name.
func (l *Log) Path() string {
	return l.writer.Filename
}

// Close flushes and closes the file. Further appends fail with ErrClosed.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.writer.Close()
}
