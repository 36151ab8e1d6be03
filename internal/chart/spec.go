package chart

import (
	"math"

	"github.com/rasstastic/rasstastic/internal/domain"
)

// Logical canvas geometry. The chart is always emitted at this size.
const (
	width        = 940
	height       = 560
	marginLeft   = 90
	marginRight  = 190
	marginTop    = 50
	marginBottom = 80

	plotW = width - marginLeft - marginRight
	plotH = height - marginTop - marginBottom
)

// dalrPerKm is the dry adiabatic lapse rate in °C per kilometer.
const dalrPerKm = 9.8

// axes holds the derived axis ranges, tick sets, and pixel transforms.
// Computed fresh per render, never persisted.
type axes struct {
	xMin, xMax float64
	yMin, yMax int
	xTicks     []float64
	yTicks     []int
}

// computeAxes derives axis ranges from the profile, its adiabatic reference
// values, and the plottable stations.
//
// The vertical range stretches to include ground level (0) and every
// plotted station elevation, rounded outward to the nearest 100; a
// degenerate range is widened upward by 100. The horizontal range covers
// all temperatures padded by 0.5 on each side, plus another 0.5 per side
// when the span is still under 1.0.
func computeAxes(points []domain.ProfilePoint, dalr func(float64) float64, stations []domain.StationObservation) axes {
	yLo := math.Min(points[0].AltitudeM, 0)
	yHi := points[len(points)-1].AltitudeM
	for _, s := range stations {
		yLo = math.Min(yLo, *s.ElevM)
		yHi = math.Max(yHi, *s.ElevM)
	}
	yMin := int(math.Floor(yLo/100.0)) * 100
	yMax := int(math.Ceil(yHi/100.0)) * 100
	if yMax <= yMin {
		yMax = yMin + 100
	}

	xLo, xHi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		xLo = math.Min(xLo, math.Min(p.TemperatureC, dalr(p.AltitudeM)))
		xHi = math.Max(xHi, math.Max(p.TemperatureC, dalr(p.AltitudeM)))
	}
	for _, s := range stations {
		xLo = math.Min(xLo, *s.TempC)
		xHi = math.Max(xHi, *s.TempC)
	}
	xMin := xLo - 0.5
	xMax := xHi + 0.5
	if xMax-xMin < 1.0 {
		xMin -= 0.5
		xMax += 0.5
	}

	a := axes{xMin: xMin, xMax: xMax, yMin: yMin, yMax: yMax}
	a.xTicks = xTickValues(xMin, xMax)
	a.yTicks = yTickValues(yMin, yMax)
	return a
}

// xToPx maps a temperature to a horizontal canvas coordinate.
func (a axes) xToPx(tempC float64) float64 {
	return marginLeft + (tempC-a.xMin)/(a.xMax-a.xMin)*plotW
}

// yToPx maps an altitude to a vertical canvas coordinate (origin top-left).
func (a axes) yToPx(altM float64) float64 {
	return marginTop + (float64(a.yMax)-altM)/float64(a.yMax-a.yMin)*plotH
}

// xTickValues picks a step of 1, 2, or 5 by range and walks from the first
// multiple at or above the lower bound.
func xTickValues(xMin, xMax float64) []float64 {
	span := xMax - xMin
	step := 5.0
	switch {
	case span <= 5:
		step = 1.0
	case span <= 10:
		step = 2.0
	}

	var ticks []float64
	for v := math.Ceil(xMin/step) * step; v <= xMax; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

// yTickValues walks multiples of 200 across the altitude range.
func yTickValues(yMin, yMax int) []int {
	var ticks []int
	for v := int(math.Ceil(float64(yMin)/200.0)) * 200; v <= yMax; v += 200 {
		ticks = append(ticks, v)
	}
	return ticks
}
