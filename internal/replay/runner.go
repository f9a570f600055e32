package replay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/proctor/internal/domain/model"
	"github.com/okian/proctor/internal/domain/types"
	"github.com/okian/proctor/pkg/logger"
)

const (
	percentageMultiplier = 100
	settlePoll           = 50 * time.Millisecond
	defaultSettle        = 5 * time.Second
)

// Run replays frames against the service and returns the final state.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Get().Named("replay")
	stats := Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting replay",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("input", cfg.Input),
		logger.Int("frames", cfg.Frames),
		logger.Float64("fps", cfg.FPS),
	)

	health, err := client.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	log.Info(ctx, "service is healthy", logger.Bool("model_loaded", health.ModelLoaded))

	frames, err := loadOrGenerate(cfg)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	stats.FramesLoaded = len(frames)

	if cfg.Output != "" {
		if err := SaveFrames(cfg.Output, frames); err != nil {
			log.Warn(ctx, "failed to save frames", logger.Error(err))
		} else {
			log.Info(ctx, "frames saved", logger.String("output", cfg.Output))
		}
	}

	lastAccepted, err := submit(ctx, cfg, client, frames, &stats, log)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	report.Final, report.Settled, err = settle(ctx, cfg, client, lastAccepted)
	if err != nil {
		return nil, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	report.Stats = stats

	displayFinalStats(ctx, log, report)
	return report, nil
}

func loadOrGenerate(cfg *Config) ([]*model.LandmarkFrame, error) {
	if cfg.Input != "" {
		return LoadFrames(cfg.Input)
	}
	return Generate(cfg.Frames, cfg.Seed, cfg.FPS, time.Now()), nil
}

// submit posts frames in order, paced at cfg.FPS. It returns the id of the
// last frame the service accepted.
func submit(ctx context.Context, cfg *Config, client *Client, frames []*model.LandmarkFrame, stats *Stats, log logger.Logger) (string, error) {
	var tick <-chan time.Time
	if cfg.FPS > 0 {
		t := time.NewTicker(time.Duration(float64(time.Second) / cfg.FPS))
		defer t.Stop()
		tick = t.C
	}

	var last string
	for i, f := range frames {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-tick:
			}
		}

		status, ack, err := client.PostFrame(ctx, f)
		stats.Submitted++
		switch {
		case err != nil:
			stats.Failed++
			log.Warn(ctx, "frame failed", logger.String("frame_id", f.FrameID), logger.Error(err))
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
		case status == http.StatusAccepted:
			stats.Accepted++
			last = ack.FrameID
		case status == http.StatusOK && ack.Duplicate:
			stats.Duplicate++
		case status == http.StatusTooManyRequests:
			stats.Rejected++
		default:
			stats.Failed++
			log.Warn(ctx, "frame not accepted", logger.String("frame_id", f.FrameID), logger.Int("status", status))
		}

		if cfg.Verbose {
			log.Info(ctx, "frame sent", logger.String("frame_id", f.FrameID), logger.Int("status", status))
		}
	}
	return last, nil
}

// settle polls results until the last accepted frame shows up or the settle
// window passes. A newer frame from another client also counts.
func settle(ctx context.Context, cfg *Config, client *Client, last string) (res types.Results, settled bool, err error) {
	window := cfg.Settle
	if window <= 0 {
		window = defaultSettle
	}
	deadline := time.Now().Add(window)

	for {
		res, err = client.Results(ctx)
		if err != nil {
			return res, false, err
		}
		if last == "" || res.FrameID == last {
			return res, last != "", nil
		}
		if time.Now().After(deadline) {
			return res, false, nil
		}
		select {
		case <-ctx.Done():
			return res, false, ctx.Err()
		case <-time.After(settlePoll):
		}
	}
}

func displayFinalStats(ctx context.Context, log logger.Logger, r *Report) {
	var acceptRate, framesPerSecond float64
	s := r.Stats
	if s.Submitted > 0 {
		acceptRate = float64(s.Accepted) / float64(s.Submitted) * percentageMultiplier
	}
	if s.Duration > 0 {
		framesPerSecond = float64(s.Submitted) / s.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("framesLoaded", s.FramesLoaded),
		logger.Int("submitted", s.Submitted),
		logger.Int("accepted", s.Accepted),
		logger.Int("duplicate", s.Duplicate),
		logger.Int("rejected", s.Rejected),
		logger.Int("failed", s.Failed),
		logger.Duration("duration", s.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("framesPerSecond", framesPerSecond),
	)
	log.Info(ctx, "final result",
		logger.Float64("cheating_score", r.Final.CheatingScore),
		logger.String("warning_level", r.Final.WarningLevel),
		logger.Strings("indicators", r.Final.Indicators),
		logger.Bool("settled", r.Settled),
	)
}
