// Package dem holds the elevation plausibility rule applied to reprojected tiles
package dem

import "math"

// Plausible elevation range for ALOS-derived tiles, metres
const (
	MinElevation = -100.0
	MaxElevation = 10000.0
)

// Rule describes which cells become the sentinel
type Rule struct {
	Min, Max float64
	Sentinel float64
	// NoData is the band's NoData before cleaning, honoured when HasNoData
	NoData    float64
	HasNoData bool
}

// NewRule returns the standard plausibility rule for sentinel
func NewRule(sentinel float64) Rule {
	return Rule{Min: MinElevation, Max: MaxElevation, Sentinel: sentinel}
}

// Invalid reports whether v must be replaced
func (r Rule) Invalid(v float64) bool {
	if math.IsNaN(v) || v < r.Min || v > r.Max {
		return true
	}
	return r.HasNoData && v == r.NoData
}

// Sanitize replaces invalid cells with the sentinel in place and returns how
// many cells changed
func Sanitize(cells []float64, r Rule) int {
	n := 0
	for i, v := range cells {
		if r.Invalid(v) {
			cells[i] = r.Sentinel
			n++
		}
	}
	return n
}

// Stats summarises one cleaning pass over a raster
type Stats struct {
	Width, Height int
	Replaced      int
}
