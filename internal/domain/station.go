package domain

import (
	"time"
)

// ObTimeLayout is the MADIS observation time format. Fixed-width and
// zero-padded, so lexicographic comparison matches temporal order.
const ObTimeLayout = "2006-01-02T15:04"

// RecentWindowMin is the maximum observation age, in minutes, for a
// station row to be flagged as recent.
const RecentWindowMin = 60.0

const kelvinOffset = 273.15

// StationObservation is the resolved surface observation for one configured
// station. ElevM or TempC being nil marks the station as missing; it is
// excluded from plotted geometry but still reported, with Provider holding
// either the data provider label or a fallback diagnostic. AgeMin and
// Recent are populated only by the recency-aware retrieval strategy.
type StationObservation struct {
	ID       string
	ElevM    *float64
	TempC    *float64
	ObTime   string
	Provider string
	AgeMin   *float64
	Recent   *bool
}

// Missing reports whether the station lacks the fields needed to plot it.
func (s StationObservation) Missing() bool {
	return s.ElevM == nil || s.TempC == nil
}

// MissingObservation builds a fully-missing row carrying a diagnostic.
func MissingObservation(id, provider string) StationObservation {
	return StationObservation{ID: id, Provider: provider}
}

// KelvinToCelsius converts a MADIS data value to Celsius.
func KelvinToCelsius(k float64) float64 {
	return k - kelvinOffset
}

// ObservationAge returns the age in minutes of a MADIS observation time
// relative to the package clock. Returns an error for malformed input.
func ObservationAge(obTime string) (float64, error) {
	t, err := time.Parse(ObTimeLayout, obTime)
	if err != nil {
		return 0, err
	}
	return clock.Now().UTC().Sub(t.UTC()).Minutes(), nil
}

// IsRecent reports whether an observation age is within the recency window.
func IsRecent(ageMin float64) bool {
	return ageMin <= RecentWindowMin
}
