// Package domain holds the terrain engine port and the typed layer handles
// passed between orchestrator stages
package domain

import (
	perr "hydroflow/internal/platform/errors"

	"github.com/paulmach/orb"
)

// Layer names a raster or vector dataset inside the terrain session
type Layer string

// Session layer names, fixed for every run
const (
	LayerDEM          Layer = "dem"
	LayerFilled       Layer = "dem_filled"
	LayerDirection    Layer = "drain_map_for_outlet"
	LayerAccumulation Layer = "flow_acc"
	LayerStreamRast   Layer = "streams"
	LayerStreamVect   Layer = "rivieres"
	LayerInputPoint   Layer = "input_point_proj"
	LayerBasinRast    Layer = "main_basin"
	LayerBasinVect    Layer = "main_basin_vect"
	LayerOutletPoint  Layer = "outlet_point"
	LayerStreamLines  Layer = "rivieres_only_lines"
	LayerBasinDiss    Layer = "main_basin_diss"
	LayerStreamsClip  Layer = "rivieres_clipped"
	LayerOutletClip   Layer = "outlet_point_clipped"
	LayerMaskedDEM    Layer = "dem_filled_masked"
)

// Working files written next to the cleaned DEM
const (
	InputPointCSV  = "input_point_proj.csv"
	OutletPointCSV = "outlet_point_swat.csv"
)

// ErrNoStreamNearPoint ends a run whose input point has no stream to snap to
var ErrNoStreamNearPoint = perr.New(perr.ErrorCodeEngine, "no stream found near input point")

// Region is the active computational grid
type Region struct {
	North, South, East, West float64
	NSRes, EWRes             float64
	Rows, Cols               int
}

// CellArea is the area of one cell in map units squared
func (r Region) CellArea() float64 { return r.EWRes * r.NSRes }

// Column is an attribute column definition
type Column struct {
	Name string
	Type string
}

// Nearest is one row of a nearest-feature query
type Nearest struct {
	FromCat  int
	Distance float64
	To       orb.Point
}

// Params for each engine operation

// ImportRasterParams loads a raster file into the session
type ImportRasterParams struct {
	Input  string
	Output Layer
	// OverrideProjection trusts the session CRS over the file's
	OverrideProjection bool
}

// FillParams fills depressions and derives flow direction
type FillParams struct {
	Input     Layer
	Output    Layer
	Direction Layer
}

// AccumulateParams computes flow accumulation
type AccumulateParams struct {
	Elevation    Layer
	Accumulation Layer
	Drainage     Layer
	Threshold    int
}

// StreamParams extracts the stream network
type StreamParams struct {
	Elevation    Layer
	Accumulation Layer
	Threshold    int
	StreamRaster Layer
	StreamVector Layer
}

// ImportPointsParams loads a delimited point file with a header line
type ImportPointsParams struct {
	Input     string
	Output    Layer
	XColumn   int
	YColumn   int
	Separator string
	SkipLines int
}

// DistanceParams asks for the nearest To feature of each From feature
type DistanceParams struct {
	From   Layer
	To     Layer
	ToType string
}

// WatershedParams delineates the area draining to Outlet
type WatershedParams struct {
	Drainage Layer
	Output   Layer
	Outlet   orb.Point
}

// ToVectorParams converts a raster to vector features
type ToVectorParams struct {
	Input  Layer
	Output Layer
	Type   string
	Smooth bool
}

// AddColumnsParams adds attribute columns
type AddColumnsParams struct {
	Map     Layer
	Columns []Column
}

// UpdateColumnParams sets a column to a literal for every feature
type UpdateColumnParams struct {
	Map    Layer
	Column string
	Value  string
}

// ExtractParams keeps only features of Type
type ExtractParams struct {
	Input  Layer
	Output Layer
	Type   string
}

// DissolveParams merges features sharing Column
type DissolveParams struct {
	Input  Layer
	Output Layer
	Column string
}

// ClipParams clips Input to Clip
type ClipParams struct {
	Input  Layer
	Clip   Layer
	Output Layer
}

// SelectParams keeps features of A related to B by Operator
type SelectParams struct {
	A        Layer
	B        Layer
	Output   Layer
	Operator string
}

// MapCalcParams evaluates Output = Expression
type MapCalcParams struct {
	Output     Layer
	Expression string
}

// ExportVectorParams writes a vector layer to an OGR datasource
type ExportVectorParams struct {
	Input     Layer
	Output    string
	Format    string
	LayerName string
	Append    bool
}

// ExportRasterParams writes a raster layer to a GDAL file
type ExportRasterParams struct {
	Input         Layer
	Output        string
	Format        string
	CreateOptions []string
	// SkipRangeCheck disables the data type range check
	SkipRangeCheck bool
}

// Stage outputs

// Conditioned is the hydrologically corrected surface and its derivatives
type Conditioned struct {
	DEM          Layer
	Filled       Layer
	Direction    Layer
	Accumulation Layer
	Region       Region
}

// Streams is the extracted network
type Streams struct {
	Raster         Layer
	Vector         Layer
	ThresholdCells int
}

// Outlet is the user point and where it snapped onto the network
type Outlet struct {
	Input      orb.Point
	Snapped    orb.Point
	Distance   float64
	InputLayer Layer
}

// Watershed is the delineated basin
type Watershed struct {
	Raster Layer
	Vector Layer
}

// SWATOutlet is the attributed outlet point layer
type SWATOutlet struct {
	Layer Layer
}

// Products are the layers handed to the exporter
type Products struct {
	Streams   Layer
	Outlet    Layer
	Basin     Layer
	MaskedDEM Layer
}

// Request is one orchestrator run
type Request struct {
	DEMPath      string
	WorkDir      string
	Lat, Lon     float64
	ThresholdKm2 float64
	SourceEPSG   int
	TargetEPSG   int
}

// Result is what the orchestrator hands back
type Result struct {
	Outlet         orb.Point
	Input          orb.Point
	Distance       float64
	ThresholdCells int
	Products       Products
}

// Artifacts are the files written by the exporter
type Artifacts struct {
	GeoPackage string `json:"geopackage"`
	MaskedDEM  string `json:"masked_dem"`
}
