package service

import (
	"context"
	"path/filepath"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/services/pipeline/envcheck"
)

// CleanedDEM is the reprojected and sanitised raster inside the temp dir
const CleanedDEM = "cleaned_dem_temp.tif"

// preprocess reprojects raw into the target CRS and applies the elevation
// plausibility rule; any failure keeps its code under one message
func (s *Service) preprocess(ctx context.Context, tc envcheck.Toolchain, raw, dir string, epsg int, sentinel float64) (string, error) {
	dst := filepath.Join(dir, CleanedDEM)
	if err := s.Adapters.Reprojector(tc).Reproject(ctx, raw, dst, epsg); err != nil {
		return "", perr.Wrap(err, perr.CodeOf(err), "DEM preprocessing failed")
	}
	st, err := s.Adapters.Cleaner().Clean(ctx, dst, sentinel)
	if err != nil {
		return "", perr.Wrap(err, perr.CodeOf(err), "DEM preprocessing failed")
	}
	logger.C(ctx).Info().
		Int("width", st.Width).Int("height", st.Height).Int("replaced", st.Replaced).
		Float64("nodata", sentinel).Msg("DEM cleaned")
	return dst, nil
}
