package domain

import (
	"context"

	"github.com/paulmach/orb"
)

// TerrainEngine is the catalogue of terrain operations the orchestrator uses
// Calls against one engine are never issued concurrently
type TerrainEngine interface {
	ImportRaster(ctx context.Context, p ImportRasterParams) error
	SetRegion(ctx context.Context, raster Layer) error
	Region(ctx context.Context) (Region, error)
	FillDepressions(ctx context.Context, p FillParams) error
	Accumulate(ctx context.Context, p AccumulateParams) error
	ExtractStreams(ctx context.Context, p StreamParams) error
	ImportPoints(ctx context.Context, p ImportPointsParams) error
	NearestFeature(ctx context.Context, p DistanceParams) ([]Nearest, error)
	DelineateWatershed(ctx context.Context, p WatershedParams) error
	RasterToVector(ctx context.Context, p ToVectorParams) error
	AddColumns(ctx context.Context, p AddColumnsParams) error
	UpdateColumn(ctx context.Context, p UpdateColumnParams) error
	ExtractByType(ctx context.Context, p ExtractParams) error
	BuildTopology(ctx context.Context, vector Layer) error
	Dissolve(ctx context.Context, p DissolveParams) error
	Clip(ctx context.Context, p ClipParams) error
	SelectSpatial(ctx context.Context, p SelectParams) error
	SetMask(ctx context.Context, vector Layer) error
	RemoveMask(ctx context.Context) error
	MapCalc(ctx context.Context, p MapCalcParams) error
	ExportVector(ctx context.Context, p ExportVectorParams) error
	ExportRaster(ctx context.Context, p ExportRasterParams) error
}

// PointProjector moves a WGS84 (lon, lat) point into the analysis CRS
type PointProjector interface {
	Forward(ctx context.Context, lon, lat float64) (orb.Point, error)
}

// AnalyzerPort is what the pipeline calls
type AnalyzerPort interface {
	Analyze(ctx context.Context, engine TerrainEngine, req Request) (Result, error)
	Export(ctx context.Context, engine TerrainEngine, p Products, outDir string) (Artifacts, error)
}
