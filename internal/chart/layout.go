package chart

// Label layout constants: nudge distance doubles as minimum separation,
// and the attempt bound guarantees termination however crowded the plot.
const (
	labelSeparation  = 12.0
	labelMaxAttempts = 30
	labelCharWidth   = 6.0
)

// placeLabels assigns a vertical position to each candidate, in order.
// Each label starts at its candidate row and is nudged downward by the
// separation distance until it clears every previously placed label, then
// is clamped into [lo, hi]. The assignment is deterministic and
// order-preserving; the attempt bound caps the nudging.
func placeLabels(candidates []float64, lo, hi float64) []float64 {
	placed := make([]float64, 0, len(candidates))
	for _, y := range candidates {
		for attempt := 0; attempt < labelMaxAttempts; attempt++ {
			if clearOf(placed, y) {
				break
			}
			y += labelSeparation
		}
		y = clamp(y, lo, hi)
		placed = append(placed, y)
	}
	return placed
}

func clearOf(placed []float64, y float64) bool {
	for _, p := range placed {
		if abs(y-p) < labelSeparation {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
