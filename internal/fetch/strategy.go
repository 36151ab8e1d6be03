// Package fetch resolves surface observations for a fixed station list.
// Two retrieval strategies implement the same contract: exactly one
// StationObservation per configured station, in input order, and a single
// station's failure never fails the others.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/rasstastic/rasstastic/internal/domain"
)

// Querier is the MADIS query surface the strategies depend on.
type Querier interface {
	RegionSnapshot(ctx context.Context, timeValue string) (map[string]domain.StationObservation, error)
	StationSnapshot(ctx context.Context, stationID, timeValue string) (map[string]domain.StationObservation, error)
}

// Strategy resolves one observation per station identifier.
type Strategy interface {
	Fetch(ctx context.Context, stations []string) []domain.StationObservation
}

// nominalTimeLayout is the MADIS time parameter format for lagged queries.
const nominalTimeLayout = "20060102_1504"

// timeValue renders a lag checkpoint as a MADIS time parameter: "0" asks
// for the newest data, otherwise the nominal time lagHours before base.
func timeValue(base time.Time, lagHours int) string {
	if lagHours == 0 {
		return "0"
	}
	return base.Add(-time.Duration(lagHours) * time.Hour).Format(nominalTimeLayout)
}

// fanOut runs resolve for each station with bounded parallelism and collects
// the results into a map keyed by station id. Each worker writes exactly one
// independent result; the mutex only guards the final collection.
func fanOut(ctx context.Context, stations []string, workers int, resolve func(ctx context.Context, id string) domain.StationObservation) map[string]domain.StationObservation {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]domain.StationObservation, len(stations))
	)

	sem := make(chan struct{}, workers)
	for _, id := range stations {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			obs := resolve(ctx, id)

			mu.Lock()
			results[id] = obs
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return results
}

// ordered flattens a result map back into configured station order, filling
// any hole with a fully-missing row.
func ordered(stations []string, results map[string]domain.StationObservation) []domain.StationObservation {
	out := make([]domain.StationObservation, 0, len(stations))
	for _, id := range stations {
		obs, ok := results[id]
		if !ok {
			obs = domain.MissingObservation(id, "no_temp")
		}
		out = append(out, obs)
	}
	return out
}
