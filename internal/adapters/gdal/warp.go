// Package gdal wraps the GDAL pieces the pipeline needs: gdalwarp as a
// subprocess for reprojection and in-process band I/O for cleaning
package gdal

import (
	"context"
	"fmt"
	"time"

	"hydroflow/internal/platform/execx"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
)

// WarpTimeout bounds one gdalwarp call
const WarpTimeout = 900 * time.Second

// Warper reprojects rasters with gdalwarp
type Warper struct {
	Bin    string
	Runner execx.Runner
	Exec   execx.Context
}

// Reproject warps src into dst in EPSG:epsg with bilinear resampling
func (w Warper) Reproject(ctx context.Context, src, dst string, epsg int) error {
	cmd := execx.Command{
		Name: w.Bin,
		Args: []string{"-overwrite", "-t_srs", fmt.Sprintf("EPSG:%d", epsg), "-r", "bilinear", src, dst},
	}
	logger.C(ctx).Info().Str("src", src).Str("dst", dst).Int("epsg", epsg).Msg("reprojecting DEM")
	if _, err := w.Runner.Run(ctx, w.Exec.WithTimeout(WarpTimeout), cmd); err != nil {
		return perr.Wrap(err, perr.ErrorCodeEngine, "gdalwarp failed")
	}
	return nil
}
