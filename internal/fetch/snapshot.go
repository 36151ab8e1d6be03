package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rasstastic/rasstastic/internal/domain"
)

// snapshotLagHours is how far back the region snapshot loop walks, one
// hour at a time, before falling over to per-station queries.
const snapshotLagHours = 72

// snapshotWorkers bounds the per-station fallback pool.
const snapshotWorkers = 3

// stationLagCheckpoints are the backward offsets, in hours, each fallback
// worker walks until a station produces a usable record.
var stationLagCheckpoints = []int{0, 1, 2, 3, 6, 9, 12, 18, 24, 36, 48, 72, 96, 120, 144, 168}

// SnapshotFallback resolves stations from region-wide snapshots at
// decreasing time offsets, then falls over to per-station lagged queries
// for whatever is still pending.
type SnapshotFallback struct {
	client  Querier
	workers int
	logger  *slog.Logger
}

// NewSnapshotFallback creates the batch-with-lag-fallback strategy.
func NewSnapshotFallback(client Querier, logger *slog.Logger) *SnapshotFallback {
	return &SnapshotFallback{
		client:  client,
		workers: snapshotWorkers,
		logger:  logger,
	}
}

// Fetch implements Strategy.
func (s *SnapshotFallback) Fetch(ctx context.Context, stations []string) []domain.StationObservation {
	base := domain.Now().UTC().Truncate(time.Minute)

	pending := make(map[string]bool, len(stations))
	for _, id := range stations {
		pending[id] = true
	}
	results := make(map[string]domain.StationObservation, len(stations))

	for lag := 0; lag <= snapshotLagHours && len(pending) > 0; lag++ {
		snapshot, err := s.client.RegionSnapshot(ctx, timeValue(base, lag))
		if err != nil {
			// A failed snapshot only skips this checkpoint; the per-station
			// fallback still covers anything left pending.
			s.logger.Debug("region snapshot failed", "lag_hours", lag, "error", err)
			continue
		}
		for id := range pending {
			if obs, ok := snapshot[id]; ok {
				results[id] = obs
				delete(pending, id)
			}
		}
	}

	if len(pending) > 0 {
		remaining := make([]string, 0, len(pending))
		for _, id := range stations {
			if pending[id] {
				remaining = append(remaining, id)
			}
		}
		s.logger.Info("falling back to per-station queries", "stations", remaining)

		fallback := fanOut(ctx, remaining, s.workers, func(ctx context.Context, id string) domain.StationObservation {
			return s.fetchOneFallback(ctx, id, base)
		})
		for id, obs := range fallback {
			results[id] = obs
		}
	}

	return ordered(stations, results)
}

// fetchOneFallback walks the lag checkpoints for a single station until a
// usable record appears. Exhaustion resolves to a missing row carrying
// either the last error or "no_temp".
func (s *SnapshotFallback) fetchOneFallback(ctx context.Context, id string, base time.Time) domain.StationObservation {
	var lastErr error
	for _, lag := range stationLagCheckpoints {
		rows, err := s.client.StationSnapshot(ctx, id, timeValue(base, lag))
		if err != nil {
			lastErr = err
			continue
		}
		if obs, ok := rows[id]; ok {
			return obs
		}
	}

	if lastErr != nil {
		return domain.MissingObservation(id, fmt.Sprintf("fetch_error: %v", lastErr))
	}
	return domain.MissingObservation(id, "no_temp")
}
