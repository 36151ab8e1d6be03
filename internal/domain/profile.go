package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNoTableHeader indicates the "HT" table marker was never found.
	ErrNoTableHeader = fmt.Errorf("profile table header not found")
	// ErrTooFewPoints indicates fewer than two valid points survived filtering.
	ErrTooFewPoints = fmt.Errorf("not enough valid profile points")
)

// missingTempSentinel marks range gates with no valid RASS retrieval.
const missingTempSentinel = 999999.0

// gridStepM is the uniform resampling step in meters.
const gridStepM = 100

// headerScanLines bounds the timestamp search to the top of the file.
const headerScanLines = 12

// ProfilePoint is one altitude/temperature sample.
type ProfilePoint struct {
	AltitudeM    float64
	TemperatureC float64
}

// Profile is a temperature profile resampled onto the uniform 100 m grid,
// ordered by ascending altitude. ObservedAt is "2006-01-02 15:04:05" UTC,
// or empty when the source file carried no recognizable timestamp line.
type Profile struct {
	ObservedAt string
	Points     []ProfilePoint
}

// ParseProfile parses raw RASS profile text into an interpolated Profile.
// It returns ErrNoTableHeader when the "HT" marker is missing and
// ErrTooFewPoints when fewer than two valid samples remain after filtering.
func ParseProfile(raw string) (Profile, error) {
	lines := strings.Split(raw, "\n")

	observedAt := extractObservedAt(lines)

	points, err := extractPoints(lines)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		ObservedAt: observedAt,
		Points:     resampleToGrid(points),
	}, nil
}

// extractObservedAt scans the first lines for "yy mm dd hh mi ss" and
// renders a four-digit-year UTC timestamp string. Absence is not an error.
func extractObservedAt(lines []string) string {
	limit := headerScanLines
	if len(lines) < limit {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		ok := true
		for _, f := range fields[:6] {
			if !isNonNegativeNumber(f) {
				ok = false
				break
			}
		}
		if !ok || len(fields[0]) > 2 {
			continue
		}
		return fmt.Sprintf("20%s-%s-%s %s:%s:%s",
			fields[0], pad2(fields[1]), pad2(fields[2]),
			pad2(fields[3]), pad2(fields[4]), pad2(fields[5]))
	}
	return ""
}

// extractPoints pulls (altitude, temperature) pairs from the data table.
// Malformed lines and sentinel temperatures are skipped, not fatal.
func extractPoints(lines []string) ([]ProfilePoint, error) {
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "HT") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, ErrNoTableHeader
	}

	var points []ProfilePoint
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "$") {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		altKm, err0 := strconv.ParseFloat(fields[0], 64)
		tempC, err1 := strconv.ParseFloat(fields[1], 64)
		if err0 != nil || err1 != nil {
			continue
		}
		if tempC >= missingTempSentinel {
			continue
		}
		points = append(points, ProfilePoint{AltitudeM: altKm * 1000.0, TemperatureC: tempC})
	}

	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	return points, nil
}

// resampleToGrid sorts the raw samples by altitude and linearly interpolates
// them onto the 100 m grid spanning [ceil(min/100)*100, floor(max/100)*100].
// The bracketing pair is located by a merge-style scan over the two sorted
// sequences: the source pointer only ever advances. Equal bracketing
// altitudes fall back to the lower point's temperature.
func resampleToGrid(points []ProfilePoint) []ProfilePoint {
	sort.Slice(points, func(i, j int) bool { return points[i].AltitudeM < points[j].AltitudeM })

	lo := int(math.Ceil(points[0].AltitudeM/100.0)) * gridStepM
	hi := int(math.Floor(points[len(points)-1].AltitudeM/100.0)) * gridStepM

	var grid []ProfilePoint
	j := 0
	for alt := lo; alt <= hi; alt += gridStepM {
		for j < len(points)-2 && points[j+1].AltitudeM < float64(alt) {
			j++
		}
		p0, p1 := points[j], points[j+1]
		t := p0.TemperatureC
		if p1.AltitudeM != p0.AltitudeM {
			t = p0.TemperatureC +
				(p1.TemperatureC-p0.TemperatureC)*(float64(alt)-p0.AltitudeM)/(p1.AltitudeM-p0.AltitudeM)
		}
		grid = append(grid, ProfilePoint{AltitudeM: float64(alt), TemperatureC: t})
	}
	return grid
}

// isNonNegativeNumber reports whether s is digits with at most one decimal point.
func isNonNegativeNumber(s string) bool {
	if s == "" {
		return false
	}
	s = strings.Replace(s, ".", "", 1)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
