// Package service wires the frame pipeline together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	framequeue "github.com/okian/proctor/internal/adapters/mq/queue"
	workerpool "github.com/okian/proctor/internal/adapters/mq/worker"
	"github.com/okian/proctor/internal/adapters/repository"
	"github.com/okian/proctor/internal/adapters/resultlog"
	"github.com/okian/proctor/internal/domain/dedupe"
	"github.com/okian/proctor/internal/domain/model"
	"github.com/okian/proctor/internal/domain/scoring"
	"github.com/okian/proctor/internal/domain/types"
	"github.com/okian/proctor/pkg/logger"
	"github.com/okian/proctor/pkg/metrics"
)

const (
	defaultWorkerCount = 1
	defaultQueueSize   = 64
	defaultDedupeSize  = 10_000
)

// Service owns the frame pipeline: dedupe, queue, worker pool and the
// latest-result cell.
type Service struct {
	mu sync.RWMutex

	// Core components
	results    repository.Store
	deduper    dedupe.Deduper
	frameQueue framequeue.Queue
	scorer     scoring.Scorer
	workerPool *workerpool.Pool
	resultLog  resultlog.Appender

	// Configuration
	workerCount int
	queueSize   int
	dropOldest  bool
	dedupeSize  int
	modelPath   string

	// State
	started     bool
	modelLoaded bool
	cancel      context.CancelFunc
	now         func() time.Time
	// seq numbers accepted frames; the results cell keeps the highest.
	seq atomic.Uint64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the frame queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDropOldest chooses between shedding the oldest frame and refusing
// the newest one when the queue is full.
func WithDropOldest(drop bool) Option {
	return func(s *Service) {
		s.dropOldest = drop
	}
}

// WithDedupeSize sets how many frame ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithModelPath points at an optional trained classifier file.
func WithModelPath(path string) Option {
	return func(s *Service) {
		s.modelPath = path
	}
}

// WithResultsLog sets where POST /api/results payloads go.
func WithResultsLog(a resultlog.Appender) Option {
	return func(s *Service) {
		s.resultLog = a
	}
}

// WithScorer replaces the threshold scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		dropOldest:  true,
		dedupeSize:  defaultDedupeSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting proctor service...")

	s.modelLoaded = s.loadModel(ctx)
	if s.scorer == nil {
		s.scorer = scoring.NewIndicatorScorer()
	}
	s.results = repository.NewAtomicStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.frameQueue = framequeue.NewInMemoryQueue(
		framequeue.WithCapacity(s.queueSize),
		framequeue.WithDropOldest(s.dropOldest),
	)

	// Workers outlive the request that started them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool = workerpool.NewPool(s.workerCount, s.frameQueue, s.scorer, s.results)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "proctor service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("dropOldest", s.dropOldest),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("modelLoaded", s.modelLoaded),
	)
	return nil
}

// loadModel reports whether a trained classifier is available. Scoring
// uses the indicator policy either way.
func (s *Service) loadModel(ctx context.Context) bool {
	if s.modelPath == "" {
		s.logger.Info(ctx, "model not loaded; using detection fallback")
		return false
	}
	info, err := os.Stat(s.modelPath)
	if err != nil || info.IsDir() {
		s.logger.Warn(ctx, "model not loaded; using detection fallback",
			logger.String("path", s.modelPath),
		)
		return false
	}
	s.logger.Info(ctx, "model file found", logger.String("path", s.modelPath))
	return true
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping proctor service...")

	if q, ok := s.frameQueue.(*framequeue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}

	s.started = false
	s.logger.Info(ctx, "proctor service stopped")
}

// Ingest accepts one frame for scoring. A frame without an id gets a fresh
// one; a frame without a capture time is stamped with the receive time.
// Duplicates are acknowledged without being scored again. Accepted frames
// are numbered in arrival order, and that order decides which result is
// latest; captured_at is carried but never compared.
func (s *Service) Ingest(ctx context.Context, f *model.LandmarkFrame) (types.FrameAck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.FrameAck{}, ErrNotStarted
	}
	if err := f.Validate(); err != nil {
		return types.FrameAck{}, err
	}

	if f.FrameID == "" {
		f.FrameID = uuid.NewString()
	}
	if f.CapturedAt.IsZero() {
		f.CapturedAt = s.now().UTC()
	}
	metrics.RecordFrameReceived()

	if s.deduper.SeenAndRecord(ctx, f.FrameID) {
		metrics.RecordFrameDuplicate()
		s.logger.Debug(ctx, "duplicate frame, skipping", logger.String("frame_id", f.FrameID))
		return types.FrameAck{Status: "duplicate", FrameID: f.FrameID, Duplicate: true}, nil
	}

	f.Seq = s.seq.Add(1)
	if !s.frameQueue.Enqueue(ctx, f) {
		// Let the client retry the same id.
		s.deduper.Unrecord(ctx, f.FrameID)
		metrics.RecordFrameDropped("rejected")
		reason := framequeue.ErrFull
		if s.frameQueue.IsClosed() {
			reason = framequeue.ErrClosed
		}
		return types.FrameAck{}, fmt.Errorf("enqueue frame %s: %w", f.FrameID, reason)
	}

	s.logger.Debug(ctx, "frame enqueued",
		logger.String("frame_id", f.FrameID),
		logger.Int("faces", f.FaceCount()),
		logger.Int("hands", f.HandCount()),
		logger.Bool("pose", f.Pose.Present()),
	)
	return types.FrameAck{Status: "accepted", FrameID: f.FrameID}, nil
}

// Latest returns the most recent result, or the safe default before the
// first frame has been scored.
func (s *Service) Latest(ctx context.Context) types.Results {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.results == nil {
		return repository.Snapshot{}.Results()
	}
	return s.results.Latest(ctx).Results()
}

// SaveResult appends an arbitrary JSON payload to the results log.
func (s *Service) SaveResult(ctx context.Context, data json.RawMessage) error {
	if s.resultLog == nil {
		return ErrResultsLogDisabled
	}
	if err := s.resultLog.Append(ctx, data); err != nil {
		if errors.Is(err, resultlog.ErrInvalidJSON) {
			return err
		}
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// ModelLoaded reports whether a trained classifier file was found at start.
func (s *Service) ModelLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelLoaded
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dropOldest":  s.dropOldest,
		"dedupeSize":  s.dedupeSize,
		"modelLoaded": s.modelLoaded,
	}

	if s.started {
		queueLen := s.frameQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["framesScored"] = s.workerPool.Processed()
		stats["resultsPublished"] = s.results.Count(ctx)
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
