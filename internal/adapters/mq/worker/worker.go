// Package worker runs the per-frame scoring loop: take a frame off the
// queue, score it, publish the result to the latest-result cell.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/proctor/internal/adapters/mq/queue"
	"github.com/okian/proctor/internal/adapters/repository"
	"github.com/okian/proctor/internal/domain/scoring"
	"github.com/okian/proctor/pkg/logger"
	"github.com/okian/proctor/pkg/metrics"
)

const (
	defaultWorkerCount    = 1
	workerShutdownTimeout = 5 * time.Second
)

// Frame is what workers read off the queue.
type Frame = queue.Frame

// Scorer computes a result for a frame.
type Scorer = scoring.Scorer

// Publisher receives scored results.
type Publisher interface {
	Publish(ctx context.Context, s repository.Snapshot) (bool, error)
}

// Queue defines how workers receive frames.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Frame
}

// Worker processes frames until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the in-flight frame.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker scores frames from a queue and publishes the results.
type InMemoryWorker struct {
	queue     Queue
	scorer    Scorer
	publisher Publisher
	name      string
	processed atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer Scorer, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		scorer:    scorer,
		publisher: publisher,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	frames := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := w.processFrame(ctx, f); err != nil {
				w.logger.Error(ctx, "error processing frame", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of frames this worker has scored.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

func (w *InMemoryWorker) processFrame(ctx context.Context, f Frame) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	scoreStart := time.Now()
	res, err := w.scorer.Score(ctx, f)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		return fmt.Errorf("score frame %s: %w", f.FrameID, err)
	}

	w.processed.Add(1)
	metrics.RecordFrameScored(res.Score, res.Level.String())
	for _, ind := range res.Indicators {
		metrics.RecordIndicator(string(ind.Kind))
	}

	w.logger.Debug(ctx, "frame scored",
		logger.String("frame_id", f.FrameID),
		logger.Float64("score", res.Score),
		logger.String("level", res.Level.String()),
		logger.Strings("indicators", res.Labels()),
	)

	published, err := w.publisher.Publish(ctx, repository.Snapshot{
		Seq:        f.Seq,
		FrameID:    f.FrameID,
		CapturedAt: f.CapturedAt,
		Result:     res,
	})
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("publish frame %s: %w", f.FrameID, err)
	}
	if !published {
		w.logger.Debug(ctx, "newer frame already published", logger.String("frame_id", f.FrameID))
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A single worker keeps frames in order.
func NewPool(workerCount int, q Queue, scorer Scorer, publisher Publisher) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, scorer, publisher, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of frames scored across the pool.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Stop signals every worker and waits up to workerShutdownTimeout for each.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
}
