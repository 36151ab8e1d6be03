// Package chart renders a temperature profile, its dry-adiabatic reference
// curve, and surface station markers as a fixed-size SVG document.
package chart

import (
	"fmt"
	"strings"

	"github.com/rasstastic/rasstastic/internal/domain"
)

// Options carries the per-run chart annotations.
type Options struct {
	// Title is the chart title; the profile observation time is appended
	// when known.
	Title string
	// SourceFile names the profile file in the subtitle.
	SourceFile string
	// StationNote describes the station selection in the subtitle, e.g.
	// "MADIS: latest available per station".
	StationNote string
}

// Render lays out and emits the chart. Stations missing elevation or
// temperature — and, when recency is tracked, stations flagged not recent —
// are excluded from the plotted geometry and listed in a caption instead.
// At least two profile grid points are required.
func Render(profile domain.Profile, stations []domain.StationObservation, opts Options) (string, error) {
	points := profile.Points
	if len(points) < 2 {
		return "", fmt.Errorf("render chart: %w", domain.ErrTooFewPoints)
	}

	anchor := points[0]
	dalr := func(altM float64) float64 {
		return anchor.TemperatureC - dalrPerKm*(altM-anchor.AltitudeM)/1000.0
	}

	var plotted, excluded []domain.StationObservation
	recencyAware := false
	for _, s := range stations {
		if s.Recent != nil {
			recencyAware = true
		}
		if s.Missing() || (s.Recent != nil && !*s.Recent) {
			excluded = append(excluded, s)
			continue
		}
		plotted = append(plotted, s)
	}

	a := computeAxes(points, dalr, plotted)

	title := opts.Title
	if profile.ObservedAt != "" {
		title += " (" + profile.ObservedAt + " UTC)"
	}
	subtitle := fmt.Sprintf("RASS file: %s | %s", opts.SourceFile, opts.StationNote)

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	b.WriteString(styleBlock)
	line(`<rect x="0" y="0" width="%d" height="%d" fill="#ffffff" />`, width, height)
	line(`<text class="title" x="%d" y="%d">%s</text>`, marginLeft, marginTop-22, escapeText(title))
	line(`<text class="subtitle" x="%d" y="%d">%s</text>`, marginLeft, marginTop-6, escapeText(subtitle))

	for _, yt := range a.yTicks {
		yPx := a.yToPx(float64(yt))
		line(`<line class="grid" x1="%d" y1="%.2f" x2="%d" y2="%.2f" />`, marginLeft, yPx, width-marginRight, yPx)
		line(`<text class="label" x="%d" y="%.2f" text-anchor="end">%d</text>`, marginLeft-8, yPx+4, yt)
	}
	for _, xt := range a.xTicks {
		xPx := a.xToPx(xt)
		line(`<line class="grid" x1="%.2f" y1="%d" x2="%.2f" y2="%d" />`, xPx, marginTop, xPx, height-marginBottom)
		line(`<text class="label" x="%.2f" y="%d" text-anchor="middle">%.1f</text>`, xPx, height-marginBottom+18, xt)
	}

	line(`<line class="axis" x1="%d" y1="%d" x2="%d" y2="%d" />`, marginLeft, marginTop, marginLeft, height-marginBottom)
	line(`<line class="axis" x1="%d" y1="%d" x2="%d" y2="%d" />`, marginLeft, height-marginBottom, width-marginRight, height-marginBottom)
	line(`<text class="label" x="%.2f" y="%d" text-anchor="middle">Temperature (C)</text>`, float64(marginLeft)+plotW/2.0, height-30)
	line(`<text class="label" x="26" y="%.2f" text-anchor="middle" transform="rotate(-90 26 %.2f)">Altitude (m)</text>`,
		float64(marginTop)+plotH/2.0, float64(marginTop)+plotH/2.0)

	line(`<path class="rass" d="%s" />`, polylinePath(points, a, func(p domain.ProfilePoint) float64 { return p.TemperatureC }))
	line(`<path class="dalr" d="%s" />`, polylinePath(points, a, func(p domain.ProfilePoint) float64 { return dalr(p.AltitudeM) }))
	for _, p := range points {
		line(`<circle class="rass-point" cx="%.2f" cy="%.2f" r="2" />`, a.xToPx(p.TemperatureC), a.yToPx(p.AltitudeM))
	}

	renderStations(&b, plotted, a)
	renderLegend(&b, recencyAware)
	renderCaption(&b, excluded, recencyAware)

	b.WriteString("</svg>\n")
	return b.String(), nil
}

// polylinePath builds an SVG path through every grid point.
func polylinePath(points []domain.ProfilePoint, a axes, temp func(domain.ProfilePoint) float64) string {
	parts := make([]string, 0, len(points))
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		parts = append(parts, fmt.Sprintf("%s%.2f,%.2f", cmd, a.xToPx(temp(p)), a.yToPx(p.AltitudeM)))
	}
	return strings.Join(parts, " ")
}

// renderStations draws a square marker per station and a label placed by
// the collision solver, flipping to right-aligned when the label would
// overflow into the right margin.
func renderStations(b *strings.Builder, plotted []domain.StationObservation, a axes) {
	candidates := make([]float64, 0, len(plotted))
	for _, s := range plotted {
		candidates = append(candidates, a.yToPx(*s.ElevM))
	}
	labelYs := placeLabels(candidates, marginTop+10, height-marginBottom-4)

	for i, s := range plotted {
		xPx := a.xToPx(*s.TempC)
		yPx := a.yToPx(*s.ElevM)
		fmt.Fprintf(b, "<rect class=\"station\" x=\"%.2f\" y=\"%.2f\" width=\"6\" height=\"6\" />\n", xPx-3, yPx-3)

		labelY := labelYs[i] + 4
		if xPx+labelCharWidth*float64(len(s.ID))+8 > width-marginRight {
			fmt.Fprintf(b, "<text class=\"station-label\" x=\"%.2f\" y=\"%.2f\" text-anchor=\"end\">%s</text>\n", xPx-6, labelY, escapeText(s.ID))
		} else {
			fmt.Fprintf(b, "<text class=\"station-label\" x=\"%.2f\" y=\"%.2f\" text-anchor=\"start\">%s</text>\n", xPx+6, labelY, escapeText(s.ID))
		}
	}
}

func renderLegend(b *strings.Builder, recencyAware bool) {
	legendX := width - marginRight + 10
	legendY := marginTop + 10

	stationLabel := "MADIS station"
	if recencyAware {
		stationLabel = "MADIS (&lt;=60 min)"
	}

	fmt.Fprintf(b, "<line class=\"rass\" x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" />\n", legendX, legendY, legendX+24, legendY)
	fmt.Fprintf(b, "<text class=\"label\" x=\"%d\" y=\"%d\">Observed (RASS)</text>\n", legendX+30, legendY+4)
	fmt.Fprintf(b, "<line class=\"dalr\" x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" />\n", legendX, legendY+20, legendX+24, legendY+20)
	fmt.Fprintf(b, "<text class=\"label\" x=\"%d\" y=\"%d\">DALR (9.8 C/km)</text>\n", legendX+30, legendY+24)
	fmt.Fprintf(b, "<rect class=\"station\" x=\"%d\" y=\"%d\" width=\"6\" height=\"6\" />\n", legendX+9, legendY+34)
	fmt.Fprintf(b, "<text class=\"label\" x=\"%d\" y=\"%d\">%s</text>\n", legendX+30, legendY+40, stationLabel)
}

func renderCaption(b *strings.Builder, excluded []domain.StationObservation, recencyAware bool) {
	if len(excluded) == 0 {
		return
	}

	prefix := "No MADIS temp"
	if recencyAware {
		prefix = "Excluded"
	}
	ids := make([]string, 0, len(excluded))
	for _, s := range excluded {
		ids = append(ids, s.ID)
	}

	legendX := width - marginRight + 10
	legendY := marginTop + 10
	fmt.Fprintf(b, "<text class=\"missing\" x=\"%d\" y=\"%d\">%s: %s</text>\n",
		legendX, legendY+62, prefix, escapeText(strings.Join(ids, ", ")))
}

// escapeText makes a string safe for SVG text content.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

const styleBlock = `<style>
  .axis { stroke: #202020; stroke-width: 1; }
  .grid { stroke: #dddddd; stroke-width: 1; }
  .title { font-family: Helvetica, Arial, sans-serif; font-size: 16px; font-weight: 600; fill: #111111; }
  .subtitle { font-family: Helvetica, Arial, sans-serif; font-size: 12px; fill: #555555; }
  .label { font-family: Helvetica, Arial, sans-serif; font-size: 12px; fill: #222222; }
  .rass { fill: none; stroke: #0077b6; stroke-width: 2; }
  .dalr { fill: none; stroke: #d1495b; stroke-width: 2; stroke-dasharray: 6 4; }
  .rass-point { fill: #0077b6; }
  .station { fill: #f4a261; stroke: #8b4c12; stroke-width: 1; }
  .station-label { font-family: Helvetica, Arial, sans-serif; font-size: 11px; fill: #444444; }
  .missing { font-family: Helvetica, Arial, sans-serif; font-size: 11px; fill: #666666; }
</style>
`
