package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProfileText = ` SBA 449 RASS
 25 07 14 18 30 00
 other header junk
  HT TEMP
 0.100 15.2
 0.300 12.8
 0.600 9.1
$ trailer
`

func TestParseProfile(t *testing.T) {
	t.Run("interpolates onto the 100 m grid", func(t *testing.T) {
		p, err := ParseProfile(testProfileText)
		require.NoError(t, err)

		require.Len(t, p.Points, 6)
		for i, want := range []float64{100, 200, 300, 400, 500, 600} {
			assert.Equal(t, want, p.Points[i].AltitudeM)
		}
		assert.InDelta(t, 15.2, p.Points[0].TemperatureC, 1e-9)
		assert.InDelta(t, 14.0, p.Points[1].TemperatureC, 1e-9)
		assert.InDelta(t, 12.8, p.Points[2].TemperatureC, 1e-9)
		assert.InDelta(t, 11.566666, p.Points[3].TemperatureC, 1e-4)
		assert.InDelta(t, 9.1, p.Points[5].TemperatureC, 1e-9)
	})

	t.Run("grid steps by exactly 100", func(t *testing.T) {
		p, err := ParseProfile(testProfileText)
		require.NoError(t, err)

		for i := 1; i < len(p.Points); i++ {
			assert.Equal(t, 100.0, p.Points[i].AltitudeM-p.Points[i-1].AltitudeM)
		}
	})

	t.Run("extracts the observation timestamp", func(t *testing.T) {
		p, err := ParseProfile(testProfileText)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-14 18:30:00", p.ObservedAt)
	})

	t.Run("zero-pads single-digit timestamp fields", func(t *testing.T) {
		raw := " 25 7 4 8 5 0\n HT\n 0.100 15.2\n 0.300 12.8\n"
		p, err := ParseProfile(raw)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-04 08:05:00", p.ObservedAt)
	})

	t.Run("missing timestamp is not an error", func(t *testing.T) {
		raw := "no numbers here\n HT\n 0.100 15.2\n 0.300 12.8\n"
		p, err := ParseProfile(raw)
		require.NoError(t, err)
		assert.Empty(t, p.ObservedAt)
	})

	t.Run("four-digit first token is not a timestamp", func(t *testing.T) {
		raw := " 2025 07 14 18 30 00\n HT\n 0.100 15.2\n 0.300 12.8\n"
		p, err := ParseProfile(raw)
		require.NoError(t, err)
		assert.Empty(t, p.ObservedAt)
	})

	t.Run("missing table header", func(t *testing.T) {
		_, err := ParseProfile(" 25 07 14 18 30 00\n 0.100 15.2\n 0.300 12.8\n")
		require.ErrorIs(t, err, ErrNoTableHeader)
	})

	t.Run("sentinel temperatures are discarded", func(t *testing.T) {
		raw := " HT\n 0.100 15.2\n 0.200 999999\n 0.250 1000000.0\n 0.300 12.8\n"
		p, err := ParseProfile(raw)
		require.NoError(t, err)
		require.Len(t, p.Points, 3)
		assert.InDelta(t, 14.0, p.Points[1].TemperatureC, 1e-9)
	})

	t.Run("malformed lines are skipped", func(t *testing.T) {
		raw := " HT\n 0.100 15.2\n junk\n abc 12.0\n 0.150\n 0.300 12.8\n"
		p, err := ParseProfile(raw)
		require.NoError(t, err)
		require.Len(t, p.Points, 3)
	})

	t.Run("table ends at dollar line", func(t *testing.T) {
		raw := " HT\n 0.100 15.2\n 0.300 12.8\n$\n 0.600 9.1\n"
		p, err := ParseProfile(raw)
		require.NoError(t, err)
		require.Len(t, p.Points, 3)
		assert.Equal(t, 300.0, p.Points[len(p.Points)-1].AltitudeM)
	})

	t.Run("fewer than two valid points", func(t *testing.T) {
		_, err := ParseProfile(" HT\n 0.100 15.2\n 0.200 999999\n")
		require.ErrorIs(t, err, ErrTooFewPoints)
	})

	t.Run("unsorted input is sorted before resampling", func(t *testing.T) {
		raw := " HT\n 0.600 9.1\n 0.100 15.2\n 0.300 12.8\n"
		p, err := ParseProfile(raw)
		require.NoError(t, err)
		require.Len(t, p.Points, 6)
		assert.InDelta(t, 14.0, p.Points[1].TemperatureC, 1e-9)
	})

	t.Run("grid value at an original altitude is exact", func(t *testing.T) {
		p, err := ParseProfile(" HT\n 0.100 15.2\n 0.300 12.8\n")
		require.NoError(t, err)
		assert.Equal(t, 15.2, p.Points[0].TemperatureC)
		assert.Equal(t, 12.8, p.Points[2].TemperatureC)
	})

	t.Run("parsing is idempotent", func(t *testing.T) {
		p1, err := ParseProfile(testProfileText)
		require.NoError(t, err)
		p2, err := ParseProfile(testProfileText)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	})

	t.Run("min and max in the same bucket yield an empty grid", func(t *testing.T) {
		p, err := ParseProfile(" HT\n 0.110 15.2\n 0.190 14.9\n")
		require.NoError(t, err)
		assert.Empty(t, p.Points)
	})
}
