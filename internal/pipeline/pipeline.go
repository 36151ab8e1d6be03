// Package pipeline orchestrates one chart generation run: locate the newest
// profile, parse it, resolve station observations, and write the outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rasstastic/rasstastic/internal/adapter/rass"
	"github.com/rasstastic/rasstastic/internal/chart"
	"github.com/rasstastic/rasstastic/internal/config"
	"github.com/rasstastic/rasstastic/internal/domain"
	"github.com/rasstastic/rasstastic/internal/fetch"
	"github.com/rasstastic/rasstastic/internal/observability"
	"github.com/rasstastic/rasstastic/internal/report"
)

// ProfileSource locates and downloads the newest profile file.
type ProfileSource interface {
	Locate(ctx context.Context) (rass.Ref, error)
	FetchProfile(ctx context.Context, ref rass.Ref) (string, error)
}

// Pipeline runs the locate-fetch-render cycle and tracks readiness.
type Pipeline struct {
	source   ProfileSource
	strategy fetch.Strategy
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(source ProfileSource, strategy fetch.Strategy, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   source,
		strategy: strategy,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one run has produced a chart.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no chart generated yet")
	}
	return nil
}

// RunOnce executes a single chart generation run. Station fetch failures
// degrade the chart rather than failing the run; profile failures are fatal
// because there is nothing to draw without one.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := time.Now()
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	err := p.run(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return err
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.ready.Store(true)
	p.logger.Info("run complete", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	ref, err := p.source.Locate(ctx)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("rass").Inc()
		return fmt.Errorf("locate profile: %w", err)
	}

	raw, err := p.source.FetchProfile(ctx, ref)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("rass").Inc()
		return fmt.Errorf("fetch profile: %w", err)
	}

	if err := p.writeOutput(p.cfg.ProfileFileName, []byte(raw)); err != nil {
		return err
	}

	profile, err := domain.ParseProfile(raw)
	if err != nil {
		return fmt.Errorf("parse profile %s: %w", ref.Name, err)
	}
	p.metrics.ProfilePoints.Observe(float64(len(profile.Points)))
	p.logger.Info("profile parsed",
		"file", ref.Name,
		"observed_at", profile.ObservedAt,
		"grid_points", len(profile.Points),
	)

	stations := p.strategy.Fetch(ctx, p.cfg.Stations)
	missing := 0
	for _, s := range stations {
		if s.Missing() {
			missing++
			p.logger.Warn("station without temperature", "station", s.ID, "detail", s.Provider)
			continue
		}
		p.logger.Info("station resolved",
			"station", s.ID,
			"temp_c", *s.TempC,
			"elev_m", *s.ElevM,
			"ob_time", s.ObTime,
			"provider", s.Provider,
		)
	}
	p.metrics.StationsMissing.Set(float64(missing))
	if missing > 0 {
		p.metrics.FetchErrors.WithLabelValues("madis").Add(float64(missing))
	}

	svg, err := chart.Render(profile, stations, chart.Options{
		Title:       p.cfg.ChartTitle,
		SourceFile:  ref.Name,
		StationNote: stationNote(p.cfg.Strategy),
	})
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if err := p.writeOutput(p.cfg.ChartFileName, []byte(svg)); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(p.cfg.OutputDir, p.cfg.StationsCSVName))
	if err != nil {
		return fmt.Errorf("create %s: %w", p.cfg.StationsCSVName, err)
	}
	defer csvFile.Close()
	if err := report.WriteStations(csvFile, stations, p.cfg.Strategy == config.StrategyDirect); err != nil {
		return fmt.Errorf("write %s: %w", p.cfg.StationsCSVName, err)
	}

	p.logger.Info("outputs written",
		"dir", p.cfg.OutputDir,
		"chart", p.cfg.ChartFileName,
		"stations_missing", missing,
	)
	return nil
}

func (p *Pipeline) writeOutput(name string, data []byte) error {
	path := filepath.Join(p.cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func stationNote(s config.Strategy) string {
	if s == config.StrategyDirect {
		return "MADIS: latest within 60 min"
	}
	return "MADIS: latest available per station"
}
