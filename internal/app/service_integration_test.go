package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/proctor/internal/adapters/mq/queue"
	service "github.com/okian/proctor/internal/app"
	"github.com/okian/proctor/internal/domain/model"
	"github.com/okian/proctor/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func lookingDown(id string, at time.Time) *model.LandmarkFrame {
	return &model.LandmarkFrame{
		FrameID:    id,
		CapturedAt: at,
		Pose: model.Some(model.Pose{
			model.LeftEye:       {X: 0.45, Y: 0.30},
			model.RightEye:      {X: 0.55, Y: 0.31},
			model.Nose:          {X: 0.5, Y: 0.65},
			model.LeftShoulder:  {X: 0.3, Y: 0.5},
			model.RightShoulder: {X: 0.7, Y: 0.3},
		}),
		Hands: model.Some([]model.HandLandmarks{{Points: []model.Landmark{{X: 0.5, Y: 0.9}}}}),
		Faces: model.Some([]model.FaceBox{{XMin: 0.3, YMin: 0.1, Width: 0.3, Height: 0.4}}),
	}
}

// blockingScorer holds every frame until release is closed.
type blockingScorer struct {
	release chan struct{}
}

func (b *blockingScorer) Score(ctx context.Context, f *model.LandmarkFrame) (scoring.Result, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return scoring.Evaluate(f), nil
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(service.WithQueueSize(16))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a frame is ingested", func() {
			ack, err := svc.Ingest(ctx, lookingDown("frame-1", t0))

			Convey("Then it should be accepted and scored", func() {
				So(err, ShouldBeNil)
				So(ack.Status, ShouldEqual, "accepted")
				So(ack.FrameID, ShouldEqual, "frame-1")

				So(waitFor(func() bool { return svc.Latest(ctx).FrameID == "frame-1" }), ShouldBeTrue)
				res := svc.Latest(ctx)
				So(res.CheatingScore, ShouldAlmostEqual, 0.45, 1e-9)
				So(res.Indicators, ShouldResemble, []string{"Looking down/away", "Abnormal posture", "Hands visible (1)"})
				So(res.WarningLevel, ShouldEqual, "warning")
				So(res.Timestamp, ShouldNotBeNil)
			})
		})

		Convey("When the same frame id arrives twice", func() {
			_, err := svc.Ingest(ctx, lookingDown("frame-dup", t0))
			So(err, ShouldBeNil)
			ack, err := svc.Ingest(ctx, lookingDown("frame-dup", t0))

			Convey("Then the second should be acknowledged as a duplicate", func() {
				So(err, ShouldBeNil)
				So(ack.Duplicate, ShouldBeTrue)
				So(ack.Status, ShouldEqual, "duplicate")
			})
		})

		Convey("When a frame has no id or capture time", func() {
			f := &model.LandmarkFrame{}
			ack, err := svc.Ingest(ctx, f)

			Convey("Then both should be filled in", func() {
				So(err, ShouldBeNil)
				So(ack.FrameID, ShouldHaveLength, 36)
				So(f.CapturedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When a future-dated frame is followed by an unstamped one", func() {
			ahead := &model.LandmarkFrame{
				FrameID:    "ahead",
				CapturedAt: time.Now().Add(time.Hour),
				Faces: model.Some([]model.FaceBox{
					{XMin: 0.1, YMin: 0.1, Width: 0.1, Height: 0.1},
					{XMin: 0.4, YMin: 0.1, Width: 0.1, Height: 0.1},
					{XMin: 0.7, YMin: 0.1, Width: 0.1, Height: 0.1},
				}),
			}
			_, err := svc.Ingest(ctx, ahead)
			So(err, ShouldBeNil)
			So(waitFor(func() bool { return svc.Latest(ctx).FrameID == "ahead" }), ShouldBeTrue)

			_, err = svc.Ingest(ctx, &model.LandmarkFrame{FrameID: "next"})
			So(err, ShouldBeNil)

			Convey("Then the later frame should replace it", func() {
				So(waitFor(func() bool { return svc.Latest(ctx).FrameID == "next" }), ShouldBeTrue)
				res := svc.Latest(ctx)
				So(res.CheatingScore, ShouldEqual, 0.0)
				So(res.Indicators, ShouldBeEmpty)
				So(res.WarningLevel, ShouldEqual, "safe")
			})
		})

		Convey("When a recording replays old capture times", func() {
			old := t0.Add(-24 * time.Hour)
			for i := 0; i < 3; i++ {
				_, err := svc.Ingest(ctx, lookingDown(fmt.Sprintf("rec-%d", i), old.Add(time.Duration(i)*time.Second)))
				So(err, ShouldBeNil)
			}
			_, err := svc.Ingest(ctx, lookingDown("rec-early", old.Add(-time.Hour)))
			So(err, ShouldBeNil)

			Convey("Then the last frame ingested should be published", func() {
				So(waitFor(func() bool { return svc.Latest(ctx).FrameID == "rec-early" }), ShouldBeTrue)
			})
		})

		Convey("When a frame is invalid", func() {
			_, err := svc.Ingest(ctx, &model.LandmarkFrame{Width: -5})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, model.ErrInvalidFrame), ShouldBeTrue)
			})
		})

		Convey("When frames are ingested in capture order", func() {
			for i := 0; i < 5; i++ {
				_, err := svc.Ingest(ctx, lookingDown(fmt.Sprintf("seq-%d", i), t0.Add(time.Duration(i)*time.Second)))
				So(err, ShouldBeNil)
			}

			Convey("Then the last one should end up published", func() {
				So(waitFor(func() bool { return svc.Latest(ctx).FrameID == "seq-4" }), ShouldBeTrue)
				So(svc.GetStats()["framesScored"], ShouldEqual, int64(5))
			})
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service whose scorer is stuck and whose queue refuses when full", t, func() {
		scorer := &blockingScorer{release: make(chan struct{})}
		svc := service.New(
			service.WithQueueSize(1),
			service.WithDropOldest(false),
			service.WithScorer(scorer),
		)
		defer svc.Stop()
		defer close(scorer.release)

		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When more frames arrive than can be held", func() {
			var rejected error
			rejectedID := ""
			for i := 0; i < 10 && rejected == nil; i++ {
				id := fmt.Sprintf("f-%d", i)
				if _, err := svc.Ingest(ctx, lookingDown(id, t0)); err != nil {
					rejected, rejectedID = err, id
				}
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then ingest should report backpressure and forget the id", func() {
				So(errors.Is(rejected, queue.ErrFull), ShouldBeTrue)
				_, err := svc.Ingest(ctx, lookingDown(rejectedID, t0))
				So(errors.Is(err, queue.ErrFull), ShouldBeTrue)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with several workers", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(1000),
		)
		defer svc.Stop()

		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When many clients post frames at once", func() {
			var wg sync.WaitGroup
			for c := 0; c < 5; c++ {
				wg.Add(1)
				go func(c int) {
					defer wg.Done()
					for i := 0; i < 40; i++ {
						at := t0.Add(time.Duration(c*40+i) * time.Millisecond)
						_, _ = svc.Ingest(ctx, lookingDown(fmt.Sprintf("c%d-%d", c, i), at))
					}
				}(c)
			}
			wg.Wait()
			_, err := svc.Ingest(ctx, lookingDown("final", t0))
			So(err, ShouldBeNil)

			Convey("Then the last frame ingested should stay published", func() {
				So(waitFor(func() bool { return svc.GetStats()["framesScored"] == int64(201) }), ShouldBeTrue)
				So(svc.Latest(ctx).FrameID, ShouldEqual, "final")
			})
		})
	})
}
