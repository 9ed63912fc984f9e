package domain

import (
	"context"

	"hydroflow/internal/core/dem"
	"hydroflow/internal/core/geo"
	"hydroflow/internal/core/runconfig"
	hydro "hydroflow/internal/services/hydro/domain"
	"hydroflow/internal/services/pipeline/envcheck"

	"github.com/google/uuid"
)

// RunnerPort is what the CLI and the API call
type RunnerPort interface {
	Run(ctx context.Context, cfg runconfig.Config) (Report, error)
	RunAs(ctx context.Context, id uuid.UUID, cfg runconfig.Config) (Report, error)
}

// Ledger records run start and finish
type Ledger interface {
	Start(ctx context.Context, r Run) error
	Finish(ctx context.Context, id uuid.UUID, f Finish) error
}

// LedgerRepo is the full storage surface for runs
type LedgerRepo interface {
	Ledger
	EnsureSchema(ctx context.Context) error
	Get(ctx context.Context, id uuid.UUID) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
}

// DEMSource fetches a raw elevation tile covering a bbox into dir
type DEMSource interface {
	Download(ctx context.Context, b geo.BBox, dir string) (string, error)
}

// Reprojector warps a raster into a target CRS
type Reprojector interface {
	Reproject(ctx context.Context, src, dst string, epsg int) error
}

// RasterCleaner applies the elevation plausibility rule to a raster in place
type RasterCleaner interface {
	Clean(ctx context.Context, path string, sentinel float64) (dem.Stats, error)
}

// Adapters builds the per-run collaborators once the toolchain is known
type Adapters interface {
	DEMSource(apiKey string, progress bool) DEMSource
	Reprojector(tc envcheck.Toolchain) Reprojector
	Cleaner() RasterCleaner
	Terrain(ctx context.Context, tc envcheck.Toolchain, s Session) (hydro.TerrainEngine, error)
	Analyzer(tc envcheck.Toolchain, targetEPSG int) hydro.AnalyzerPort
}
