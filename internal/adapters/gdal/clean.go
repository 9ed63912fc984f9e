package gdal

import (
	"context"
	"strconv"
	"sync"

	"hydroflow/internal/core/dem"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"

	"github.com/airbusgeo/godal"
)

// stripRows is the number of raster rows read and written per pass
const stripRows = 256

var registerOnce sync.Once

// Cleaner applies the plausibility rule to band 1 of a GeoTIFF in place
type Cleaner struct{}

// Clean opens path in update mode, replaces invalid cells with the sentinel,
// and records the sentinel as band NoData and as the dataset "nodata" tag
func (Cleaner) Clean(ctx context.Context, path string, sentinel float64) (dem.Stats, error) {
	registerOnce.Do(godal.RegisterAll)

	ds, err := godal.Open(path, godal.Update())
	if err != nil {
		return dem.Stats{}, perr.Wrapf(err, perr.ErrorCodeFilesystem, "open %s for update", path)
	}
	stats, err := cleanDataset(ctx, ds, sentinel)
	if cerr := ds.Close(); err == nil && cerr != nil {
		err = perr.Wrapf(cerr, perr.ErrorCodeFilesystem, "flush %s", path)
	}
	if err != nil {
		return stats, err
	}
	logger.C(ctx).Info().Str("path", path).Int("replaced", stats.Replaced).
		Int("width", stats.Width).Int("height", stats.Height).Msg("DEM cleaned")
	return stats, nil
}

func cleanDataset(ctx context.Context, ds *godal.Dataset, sentinel float64) (dem.Stats, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return dem.Stats{}, perr.Enginef("raster has no bands")
	}
	band := bands[0]
	st := ds.Structure()
	stats := dem.Stats{Width: st.SizeX, Height: st.SizeY}

	rule := dem.NewRule(sentinel)
	rule.NoData, rule.HasNoData = band.NoData()

	buf := make([]float64, st.SizeX*stripRows)
	for y := 0; y < st.SizeY; y += stripRows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		h := min(stripRows, st.SizeY-y)
		strip := buf[:st.SizeX*h]
		if err := band.Read(0, y, strip, st.SizeX, h); err != nil {
			return stats, perr.Wrapf(err, perr.ErrorCodeEngine, "read rows %d..%d", y, y+h)
		}
		if n := dem.Sanitize(strip, rule); n > 0 {
			stats.Replaced += n
			if err := band.Write(0, y, strip, st.SizeX, h); err != nil {
				return stats, perr.Wrapf(err, perr.ErrorCodeEngine, "write rows %d..%d", y, y+h)
			}
		}
	}

	if err := band.SetNoData(sentinel); err != nil {
		return stats, perr.Wrap(err, perr.ErrorCodeEngine, "set band nodata")
	}
	if err := ds.SetMetadata("nodata", strconv.FormatFloat(sentinel, 'f', -1, 64)); err != nil {
		return stats, perr.Wrap(err, perr.ErrorCodeEngine, "set nodata tag")
	}
	return stats, nil
}
