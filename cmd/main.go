package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/proctor/internal/adapters/http/api"
	"github.com/okian/proctor/internal/adapters/http/site"
	"github.com/okian/proctor/internal/adapters/http/swagger"
	"github.com/okian/proctor/internal/adapters/http/ws"
	"github.com/okian/proctor/internal/adapters/resultlog"
	app "github.com/okian/proctor/internal/app"
	"github.com/okian/proctor/internal/config"
	"github.com/okian/proctor/pkg/logger"
	"github.com/okian/proctor/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The logger may not be available yet.
		_, _ = os.Stderr.WriteString("proctor: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: stop is called above
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get()

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDropOldest(cfg.QueueDropOldest),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithModelPath(cfg.ModelPath),
	}
	if cfg.ResultsLogPath != "" {
		results := resultlog.New(cfg.ResultsLogPath,
			resultlog.WithMaxSizeMB(cfg.ResultsLogMaxSizeMB),
			resultlog.WithMaxBackups(cfg.ResultsLogMaxBackups),
			resultlog.WithMaxAgeDays(cfg.ResultsLogMaxAgeDays),
			resultlog.WithCompress(cfg.ResultsLogCompress),
		)
		defer func() { _ = results.Close() }()
		opts = append(opts, app.WithResultsLog(results))
		log.Info(ctx, "results log enabled", logger.String("path", results.Path()))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	hub := ws.New(svc, cfg.WSInterval())
	go hub.Run(ctx)

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	if path := config.Path(); path != "" {
		go watchConfig(ctx, path)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, hub),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return nil
}

// newMux registers every route: API, WebSocket, docs and pages.
func newMux(ctx context.Context, svc *app.Service, hub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	api.NewServer(svc, serverStats{svc: svc, hub: hub}).Register(ctx, mux)
	mux.Handle("/ws/results", hub)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	return mux
}

// serverStats adds the WebSocket client count to the service statistics.
type serverStats struct {
	svc *app.Service
	hub *ws.Hub
}

func (s serverStats) GetStats() map[string]interface{} {
	stats := s.svc.GetStats()
	stats["websocketClients"] = s.hub.Count()
	return stats
}

// watchConfig applies log level changes from the config file without a restart.
func watchConfig(ctx context.Context, path string) {
	log := logger.Get().Named("config")
	err := config.Watch(ctx, path, func(c *config.Config) {
		if err := logger.SetLevelString(c.LogLevel); err != nil {
			log.Warn(ctx, "ignoring log_level from reloaded config", logger.String("log_level", c.LogLevel), logger.Error(err))
			return
		}
		log.Info(ctx, "log level updated", logger.String("log_level", c.LogLevel))
	})
	if err != nil {
		log.Error(ctx, "config watch stopped", logger.Error(err))
	}
}

// startSystemMetricsUpdater periodically records runtime metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater periodically refreshes queue and worker gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the queue and worker gauges.
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
