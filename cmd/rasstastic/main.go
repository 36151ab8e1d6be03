package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rasstastic/rasstastic/internal/adapter/httpserv"
	"github.com/rasstastic/rasstastic/internal/adapter/madis"
	"github.com/rasstastic/rasstastic/internal/adapter/rass"
	"github.com/rasstastic/rasstastic/internal/config"
	"github.com/rasstastic/rasstastic/internal/fetch"
	"github.com/rasstastic/rasstastic/internal/observability"
	"github.com/rasstastic/rasstastic/internal/pipeline"
	"github.com/rasstastic/rasstastic/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	archive := rass.NewClient(cfg.RassBaseURL, cfg.SiteCode, cfg.ArchiveTimeout, logger)
	madisClient := madis.NewClient(cfg.MadisBaseURL, cfg.MadisState, cfg.SnapshotTimeout, cfg.StationTimeout, logger)

	var strategy fetch.Strategy
	switch cfg.Strategy {
	case config.StrategyDirect:
		strategy = fetch.NewDirectLatest(madisClient, logger)
	default:
		strategy = fetch.NewSnapshotFallback(madisClient, logger)
	}
	logger.Info("station fetch strategy selected", "strategy", cfg.Strategy)

	p := pipeline.New(archive, strategy, cfg, logger, metrics)

	if cfg.RunInterval == 0 {
		runOnce(p, cfg, logger)
		return
	}

	serve(p, cfg, logger)
}

// runOnce generates a single chart and exits, for cron-style invocation.
func runOnce(p *pipeline.Pipeline, cfg *config.Config, logger *slog.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.RunOnce(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// serve refreshes the chart on an interval and exposes it over HTTP until
// interrupted.
func serve(p *pipeline.Pipeline, cfg *config.Config, logger *slog.Logger) {
	srv := httpserv.NewServer(cfg.HTTPAddr, p, cfg.OutputDir, cfg.ChartFileName, cfg.StationsCSVName, logger)
	sched := scheduler.New(p, cfg.RunInterval, cfg.RunInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := sched.Start(); err != nil {
		logger.Error("scheduler start error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
