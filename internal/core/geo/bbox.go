// Package geo holds the pure geographic helpers of the pipeline: the WGS84
// request box around a site and the forward transform of the site point into
// the analysis CRS
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// KmPerDegree is the flat-earth conversion used for the request box
const KmPerDegree = 111.0

// minCosLat floors the longitude correction near the poles
const minCosLat = 0.01

// BBox is a WGS84 box in decimal degrees
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// BBoxWGS84 returns the box of half-width halfWidthKm centred on (lat, lon)
// The longitude delta widens with |lat| so the box stays roughly square on the ground
func BBoxWGS84(lat, lon, halfWidthKm float64) BBox {
	dlat := halfWidthKm / KmPerDegree
	dlon := halfWidthKm / (KmPerDegree * math.Max(math.Cos(lat*math.Pi/180), minCosLat))
	return BBox{
		West:  lon - dlon,
		South: lat - dlat,
		East:  lon + dlon,
		North: lat + dlat,
	}
}

// Bound returns the box as an orb.Bound
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}
}

// Width is east minus west, in degrees
func (b BBox) Width() float64 { return b.East - b.West }

// Valid reports whether the box is non-empty and inside the WGS84 domain
func (b BBox) Valid() bool {
	return b.West < b.East && b.South < b.North &&
		b.West >= -180 && b.East <= 180 && b.South >= -90 && b.North <= 90
}

// String renders west,south,east,north with 6 decimals
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.West, b.South, b.East, b.North)
}
