// Command replay sends recorded or synthetic landmark frames to a proctor
// service and reports what it scored.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/proctor/internal/replay"
	"github.com/okian/proctor/pkg/logger"
	"github.com/spf13/cobra"
)

// Version is the tool version.
const Version = "0.1.0"

const logFilePermission = 0o600

var (
	cfg = replay.Config{
		BaseURL: "http://localhost:5000",
		Frames:  100,
		FPS:     10,
		Seed:    1,
		Timeout: 10 * time.Second,
		Settle:  5 * time.Second,
	}
	logFile   string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:     "replay",
	Short:   "Replay landmark frames against a proctor service",
	Version: Version,
	Args:    cobra.NoArgs,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogging(logFile, logFormat)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := replay.Run(cmd.Context(), &cfg)
		if err != nil {
			return err
		}
		if report.Stats.Failed > 0 {
			return fmt.Errorf("%d of %d frames failed", report.Stats.Failed, report.Stats.Submitted)
		}
		return nil
	},
	SilenceUsage: true,
}

// setupLogging writes logs to stdout and, when path is set, to a file too.
func setupLogging(path, format string) error {
	out := io.Writer(os.Stdout)
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission) //nolint:gosec // user-supplied log file
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	f.StringVarP(&cfg.Input, "file", "f", "", "JSON-lines frame recording (default: generate frames)")
	f.IntVarP(&cfg.Frames, "frames", "n", cfg.Frames, "Number of frames to generate")
	f.Float64Var(&cfg.FPS, "fps", cfg.FPS, "Frames per second; 0 sends as fast as possible")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for generated frames")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&cfg.Settle, "settle", cfg.Settle, "How long to wait for the last frame to be scored")
	f.StringVarP(&cfg.Output, "output", "o", "", "Save the frames that were sent as JSON lines")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every frame")

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
