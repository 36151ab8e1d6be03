package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasstastic/rasstastic/internal/domain"
)

type stationCall struct {
	id        string
	timeValue string
}

// fakeQuerier records calls and delegates to configurable handlers. All
// methods are safe for concurrent use because strategies fan out workers.
type fakeQuerier struct {
	mu           sync.Mutex
	regionCalls  []string
	stationCalls []stationCall
	region       func(timeValue string) (map[string]domain.StationObservation, error)
	station      func(id, timeValue string) (map[string]domain.StationObservation, error)
}

func (f *fakeQuerier) RegionSnapshot(_ context.Context, timeValue string) (map[string]domain.StationObservation, error) {
	f.mu.Lock()
	f.regionCalls = append(f.regionCalls, timeValue)
	f.mu.Unlock()
	if f.region == nil {
		return nil, errors.New("no region handler")
	}
	return f.region(timeValue)
}

func (f *fakeQuerier) StationSnapshot(_ context.Context, id, timeValue string) (map[string]domain.StationObservation, error) {
	f.mu.Lock()
	f.stationCalls = append(f.stationCalls, stationCall{id: id, timeValue: timeValue})
	f.mu.Unlock()
	if f.station == nil {
		return nil, errors.New("no station handler")
	}
	return f.station(id, timeValue)
}

func testObs(id, obTime string, elev, temp float64) domain.StationObservation {
	return domain.StationObservation{ID: id, ElevM: &elev, TempC: &temp, ObTime: obTime, Provider: "TEST"}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(base))
	t.Cleanup(func() { domain.SetClock(nil) })
	return base
}

func TestSnapshotFallback_AllFromFirstSnapshot(t *testing.T) {
	freezeClock(t)

	q := &fakeQuerier{
		region: func(string) (map[string]domain.StationObservation, error) {
			return map[string]domain.StationObservation{
				"KSBA":  testObs("KSBA", "2024-05-01T11:55", 3.0, 17.2),
				"SE068": testObs("SE068", "2024-05-01T11:50", 120.5, 15.0),
			}, nil
		},
	}

	got := NewSnapshotFallback(q, testLogger()).Fetch(context.Background(), []string{"KSBA", "SE068"})

	require.Len(t, got, 2)
	assert.Equal(t, "KSBA", got[0].ID)
	assert.Equal(t, "SE068", got[1].ID)
	assert.False(t, got[0].Missing())
	assert.False(t, got[1].Missing())

	assert.Equal(t, []string{"0"}, q.regionCalls)
	assert.Empty(t, q.stationCalls)
}

func TestSnapshotFallback_LaggedSnapshot(t *testing.T) {
	freezeClock(t)

	q := &fakeQuerier{
		region: func(timeValue string) (map[string]domain.StationObservation, error) {
			// Nothing now, a hit two hours back.
			if timeValue == "20240501_1000" {
				return map[string]domain.StationObservation{
					"MTIC1": testObs("MTIC1", "2024-05-01T09:40", 431.0, 11.0),
				}, nil
			}
			return map[string]domain.StationObservation{}, nil
		},
	}

	got := NewSnapshotFallback(q, testLogger()).Fetch(context.Background(), []string{"MTIC1"})

	require.Len(t, got, 1)
	assert.False(t, got[0].Missing())
	assert.Equal(t, []string{"0", "20240501_1100", "20240501_1000"}, q.regionCalls)
}

func TestSnapshotFallback_PerStationFallback(t *testing.T) {
	freezeClock(t)

	q := &fakeQuerier{
		region: func(string) (map[string]domain.StationObservation, error) {
			return map[string]domain.StationObservation{}, nil
		},
		station: func(id, timeValue string) (map[string]domain.StationObservation, error) {
			// Only the six-hour checkpoint has data.
			if timeValue == "20240501_0600" {
				return map[string]domain.StationObservation{
					id: testObs(id, "2024-05-01T05:45", 120.5, 14.2),
				}, nil
			}
			return map[string]domain.StationObservation{}, nil
		},
	}

	got := NewSnapshotFallback(q, testLogger()).Fetch(context.Background(), []string{"SE068"})

	require.Len(t, got, 1)
	assert.False(t, got[0].Missing())
	assert.Equal(t, "2024-05-01T05:45", got[0].ObTime)

	// Checkpoints 0,1,2,3 missed before the 6 h hit.
	require.Len(t, q.stationCalls, 5)
	assert.Equal(t, "0", q.stationCalls[0].timeValue)
	assert.Equal(t, "20240501_0600", q.stationCalls[4].timeValue)
}

func TestSnapshotFallback_Exhaustion(t *testing.T) {
	freezeClock(t)

	t.Run("no usable record anywhere", func(t *testing.T) {
		q := &fakeQuerier{
			region: func(string) (map[string]domain.StationObservation, error) {
				return map[string]domain.StationObservation{}, nil
			},
			station: func(string, string) (map[string]domain.StationObservation, error) {
				return map[string]domain.StationObservation{}, nil
			},
		}

		got := NewSnapshotFallback(q, testLogger()).Fetch(context.Background(), []string{"421SE"})

		require.Len(t, got, 1)
		assert.True(t, got[0].Missing())
		assert.Equal(t, "no_temp", got[0].Provider)
		assert.Len(t, q.stationCalls, len(stationLagCheckpoints))
	})

	t.Run("persistent transport failure", func(t *testing.T) {
		q := &fakeQuerier{
			region: func(string) (map[string]domain.StationObservation, error) {
				return nil, errors.New("timeout")
			},
			station: func(string, string) (map[string]domain.StationObservation, error) {
				return nil, errors.New("timeout")
			},
		}

		got := NewSnapshotFallback(q, testLogger()).Fetch(context.Background(), []string{"421SE"})

		require.Len(t, got, 1)
		assert.True(t, got[0].Missing())
		assert.Equal(t, "fetch_error: timeout", got[0].Provider)
	})
}

func TestSnapshotFallback_OneFailureDoesNotBlockOthers(t *testing.T) {
	freezeClock(t)

	q := &fakeQuerier{
		region: func(string) (map[string]domain.StationObservation, error) {
			return map[string]domain.StationObservation{
				"KSBA": testObs("KSBA", "2024-05-01T11:55", 3.0, 17.2),
			}, nil
		},
		station: func(string, string) (map[string]domain.StationObservation, error) {
			return nil, errors.New("boom")
		},
	}

	got := NewSnapshotFallback(q, testLogger()).Fetch(context.Background(), []string{"KSBA", "SE999"})

	require.Len(t, got, 2)
	assert.False(t, got[0].Missing())
	assert.True(t, got[1].Missing())
	assert.Equal(t, "fetch_error: boom", got[1].Provider)
}
