package module

import (
	"context"

	"hydroflow/internal/adapters/demsource/opentopo"
	"hydroflow/internal/adapters/gdal"
	"hydroflow/internal/adapters/grass"
	"hydroflow/internal/core/geo"
	"hydroflow/internal/platform/execx"
	hydro "hydroflow/internal/services/hydro/domain"
	hydrosvc "hydroflow/internal/services/hydro/service"
	"hydroflow/internal/services/pipeline/domain"
	"hydroflow/internal/services/pipeline/envcheck"
)

// toolAdapters builds the real collaborators: OpenTopography over HTTP,
// gdalwarp and godal for the DEM, a GRASS session for the analysis
type toolAdapters struct {
	runner  execx.Runner
	demURL  string
	demType string
}

func (a toolAdapters) DEMSource(apiKey string, progress bool) domain.DEMSource {
	c := opentopo.New(apiKey, opentopo.WithProgress(progress))
	if a.demURL != "" {
		c.BaseURL = a.demURL
	}
	if a.demType != "" {
		c.DEMType = a.demType
	}
	return c
}

func (a toolAdapters) Reprojector(tc envcheck.Toolchain) domain.Reprojector {
	return gdal.Warper{Bin: tc.Warp, Runner: a.runner, Exec: tc.GDAL}
}

func (a toolAdapters) Cleaner() domain.RasterCleaner { return gdal.Cleaner{} }

func (a toolAdapters) Terrain(ctx context.Context, tc envcheck.Toolchain, s domain.Session) (hydro.TerrainEngine, error) {
	eng, err := grass.Open(ctx, grass.Session{
		GISDB:    s.GISDB,
		Location: s.Location,
		Mapset:   s.Mapset,
		EPSG:     s.EPSG,
		Launcher: tc.GRASSLauncher,
		Runner:   a.runner,
		Exec:     tc.GRASS,
	})
	if err != nil {
		return nil, err
	}
	return eng, nil
}

func (a toolAdapters) Analyzer(tc envcheck.Toolchain, targetEPSG int) hydro.AnalyzerPort {
	return hydrosvc.New(geo.Transformer{
		TargetEPSG: targetEPSG,
		Runner:     a.runner,
		Exec:       tc.GDAL,
		Tool:       tc.Transform,
	})
}

var _ domain.Adapters = toolAdapters{}
