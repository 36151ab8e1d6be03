// Package report emits the tabular station output.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rasstastic/rasstastic/internal/domain"
)

// WriteStations writes one CSV row per station, in the given order.
// Missing stations keep their id and provider diagnostic with the data
// fields left empty. When recencyAware is set the layout gains the
// age_min and recent columns produced by the direct-latest strategy.
func WriteStations(w io.Writer, stations []domain.StationObservation, recencyAware bool) error {
	cw := csv.NewWriter(w)

	header := []string{"station", "elev_m", "temp_c", "ob_time", "provider"}
	if recencyAware {
		header = []string{"station", "elev_m", "temp_c", "ob_time", "age_min", "provider", "recent"}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, s := range stations {
		var row []string
		if recencyAware {
			row = recencyRow(s)
		} else {
			row = plainRow(s)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", s.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func plainRow(s domain.StationObservation) []string {
	if s.Missing() {
		return []string{s.ID, "", "", "", s.Provider}
	}
	return []string{
		s.ID,
		fmt.Sprintf("%.2f", *s.ElevM),
		fmt.Sprintf("%.2f", *s.TempC),
		s.ObTime,
		s.Provider,
	}
}

func recencyRow(s domain.StationObservation) []string {
	recent := false
	if s.Recent != nil {
		recent = *s.Recent
	}

	if s.Missing() {
		return []string{s.ID, "", "", "", "", s.Provider, strconv.FormatBool(recent)}
	}

	age := ""
	if s.AgeMin != nil {
		age = fmt.Sprintf("%.1f", *s.AgeMin)
	}
	return []string{
		s.ID,
		fmt.Sprintf("%.2f", *s.ElevM),
		fmt.Sprintf("%.2f", *s.TempC),
		s.ObTime,
		age,
		s.Provider,
		strconv.FormatBool(recent),
	}
}
