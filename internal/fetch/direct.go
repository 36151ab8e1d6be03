package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rasstastic/rasstastic/internal/adapter/madis"
	"github.com/rasstastic/rasstastic/internal/domain"
)

// directWorkers bounds the per-station query pool.
const directWorkers = 4

// DirectLatest queries each station once for its newest record and flags
// rows older than the recency window. It never walks lag checkpoints.
type DirectLatest struct {
	client  Querier
	workers int
	logger  *slog.Logger
}

// NewDirectLatest creates the direct-per-station strategy.
func NewDirectLatest(client Querier, logger *slog.Logger) *DirectLatest {
	return &DirectLatest{
		client:  client,
		workers: directWorkers,
		logger:  logger,
	}
}

// Fetch implements Strategy.
func (d *DirectLatest) Fetch(ctx context.Context, stations []string) []domain.StationObservation {
	results := fanOut(ctx, stations, d.workers, d.fetchOne)
	return ordered(stations, results)
}

func (d *DirectLatest) fetchOne(ctx context.Context, id string) domain.StationObservation {
	notRecent := false

	rows, err := d.client.StationSnapshot(ctx, id, "0")
	if err != nil {
		obs := domain.MissingObservation(id, diagnostic(err))
		obs.Recent = &notRecent
		return obs
	}

	obs, ok := rows[id]
	if !ok {
		missing := domain.MissingObservation(id, "no_temp")
		missing.Recent = &notRecent
		return missing
	}

	age, err := domain.ObservationAge(obs.ObTime)
	if err != nil {
		d.logger.Warn("unparseable observation time", "station", id, "ob_time", obs.ObTime)
		missing := domain.MissingObservation(id, fmt.Sprintf("xml_error: %v", err))
		missing.Recent = &notRecent
		return missing
	}

	recent := domain.IsRecent(age)
	obs.AgeMin = &age
	obs.Recent = &recent
	return obs
}

// diagnostic maps a query failure to the provider diagnostic text:
// decode failures are "xml_error", everything else is "fetch_error".
func diagnostic(err error) string {
	if errors.Is(err, madis.ErrDecode) {
		return fmt.Sprintf("xml_error: %v", err)
	}
	return fmt.Sprintf("fetch_error: %v", err)
}
