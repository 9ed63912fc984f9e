package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/services/hydro/domain"
)

// Output file names inside the run output dir
const (
	GeoPackageName = "hydro_results.gpkg"
	MaskedDEMName  = "MNT_decoupe_bassin_versant.tif"
)

// Export writes the vector products into one GeoPackage and the masked DEM
// into a compressed GeoTIFF
func (s *Service) Export(ctx context.Context, eng domain.TerrainEngine, p domain.Products, outDir string) (domain.Artifacts, error) {
	ctx = logger.WithStage(ctx, "export")
	log := logger.C(ctx)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return domain.Artifacts{}, perr.Wrapf(err, perr.ErrorCodeFilesystem, "create output dir %s", outDir)
	}
	art := domain.Artifacts{
		GeoPackage: filepath.Join(outDir, GeoPackageName),
		MaskedDEM:  filepath.Join(outDir, MaskedDEMName),
	}
	for _, stale := range []string{art.GeoPackage, art.MaskedDEM} {
		if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", stale).Msg("could not remove previous output")
		}
	}

	layers := []struct {
		in   domain.Layer
		name string
	}{
		{p.Streams, "rivieres"},
		{p.Outlet, "exutoire"},
		{p.Basin, "main_basin"},
	}
	for i, l := range layers {
		if err := eng.ExportVector(ctx, domain.ExportVectorParams{
			Input: l.in, Output: art.GeoPackage, Format: "GPKG", LayerName: l.name, Append: i > 0,
		}); err != nil {
			return domain.Artifacts{}, err
		}
	}

	if err := eng.ExportRaster(ctx, domain.ExportRasterParams{
		Input:          p.MaskedDEM,
		Output:         art.MaskedDEM,
		Format:         "GTiff",
		CreateOptions:  []string{"COMPRESS=DEFLATE", "PREDICTOR=2"},
		SkipRangeCheck: true,
	}); err != nil {
		return domain.Artifacts{}, err
	}

	log.Info().Str("gpkg", art.GeoPackage).Str("dem", art.MaskedDEM).Msg("results exported")
	return art, nil
}
