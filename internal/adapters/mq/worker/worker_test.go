package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/proctor/internal/adapters/mq/queue"
	worker "github.com/okian/proctor/internal/adapters/mq/worker"
	repository "github.com/okian/proctor/internal/adapters/repository"
	model "github.com/okian/proctor/internal/domain/model"
	scoring "github.com/okian/proctor/internal/domain/scoring"
	logging "github.com/okian/proctor/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	frameChan chan queue.Frame
}

func newMockQueue() *mockQueue {
	return &mockQueue{frameChan: make(chan queue.Frame, 16)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Frame {
	return mq.frameChan
}

func (mq *mockQueue) Close() {
	close(mq.frameChan)
}

func (mq *mockQueue) addFrame(f queue.Frame) {
	mq.frameChan <- f
}

type mockScorer struct {
	errors map[string]error
	mu     sync.RWMutex
}

func newMockScorer() *mockScorer {
	return &mockScorer{errors: make(map[string]error)}
}

func (ms *mockScorer) Score(ctx context.Context, f *model.LandmarkFrame) (scoring.Result, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if err, exists := ms.errors[f.FrameID]; exists {
		return scoring.Result{}, err
	}
	return scoring.Evaluate(f), nil
}

func (ms *mockScorer) setError(frameID string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errors[frameID] = err
}

type mockPublisher struct {
	published map[string]repository.Snapshot
	errors    map[string]error
	mu        sync.RWMutex
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		published: make(map[string]repository.Snapshot),
		errors:    make(map[string]error),
	}
}

func (mp *mockPublisher) Publish(ctx context.Context, s repository.Snapshot) (bool, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if err, exists := mp.errors[s.FrameID]; exists {
		return false, err
	}
	mp.published[s.FrameID] = s
	return true, nil
}

func (mp *mockPublisher) setError(frameID string, err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.errors[frameID] = err
}

func (mp *mockPublisher) get(frameID string) (repository.Snapshot, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	s, ok := mp.published[frameID]
	return s, ok
}

func (mp *mockPublisher) count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return len(mp.published)
}

var capturedAt = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func twoFaces(id string) queue.Frame {
	return &model.LandmarkFrame{
		FrameID:    id,
		CapturedAt: capturedAt,
		Seq:        7,
		Faces: model.Some([]model.FaceBox{
			{XMin: 0.1, YMin: 0.1, Width: 0.2, Height: 0.3},
			{XMin: 0.6, YMin: 0.1, Width: 0.2, Height: 0.3},
		}),
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with a mock queue, scorer and publisher", t, func() {
		_ = logging.Init()
		mq := newMockQueue()
		scorer := newMockScorer()
		publisher := newMockPublisher()
		w := worker.NewInMemoryWorker(mq, scorer, publisher, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a frame is queued", func() {
			mq.addFrame(twoFaces("frame-1"))
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then the scored snapshot should be published", func() {
				s, ok := publisher.get("frame-1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(s.CapturedAt, convey.ShouldEqual, capturedAt)
				convey.So(s.Seq, convey.ShouldEqual, uint64(7))
				convey.So(s.Result.Score, convey.ShouldAlmostEqual, 0.25, 1e-9)
				convey.So(s.Result.Labels(), convey.ShouldResemble, []string{"Multiple people detected (2)"})
				convey.So(w.Processed(), convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When scoring fails", func() {
			scorer.setError("bad", errors.New("scorer down"))
			mq.addFrame(twoFaces("bad"))
			mq.addFrame(twoFaces("good"))
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then the frame is skipped and the worker keeps going", func() {
				_, ok := publisher.get("bad")
				convey.So(ok, convey.ShouldBeFalse)
				_, ok = publisher.get("good")
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			err := w.Shutdown(sctx)

			convey.Convey("Then it should stop without error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()
		mq := newMockQueue()
		publisher := newMockPublisher()

		convey.Convey("When created with a non-positive worker count", func() {
			pool := worker.NewPool(0, mq, newMockScorer(), publisher)

			convey.Convey("Then it should default to one worker", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When started with several workers", func() {
			pool := worker.NewPool(3, mq, newMockScorer(), publisher)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for i := 0; i < 10; i++ {
				mq.addFrame(twoFaces(fmt.Sprintf("frame-%d", i)))
			}
			time.Sleep(100 * time.Millisecond)

			convey.Convey("Then every frame should be scored", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 3)
				convey.So(publisher.count(), convey.ShouldEqual, 10)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(10))
			})

			convey.Convey("And stop should return once workers exit", func() {
				done := make(chan struct{})
				go func() {
					pool.Stop()
					close(done)
				}()
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Error("pool did not stop")
				}
			})
		})
	})
}

func TestWorkerErrorHandling(t *testing.T) {
	convey.Convey("Given a publisher that fails for one frame", t, func() {
		_ = logging.Init()
		mq := newMockQueue()
		publisher := newMockPublisher()
		publisher.setError("frame-1", errors.New("write failed"))
		w := worker.NewInMemoryWorker(mq, newMockScorer(), publisher)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()

		mq.addFrame(twoFaces("frame-1"))
		mq.addFrame(twoFaces("frame-2"))
		mq.Close()

		convey.Convey("Then the worker should log, continue and exit when the queue closes", func() {
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("worker did not exit on closed queue")
			}
			_, ok := publisher.get("frame-1")
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = publisher.get("frame-2")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(w.Processed(), convey.ShouldEqual, int64(2))
		})
	})
}
