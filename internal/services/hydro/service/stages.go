package service

import (
	"context"
	"math"

	"hydroflow/internal/platform/logger"
	"hydroflow/internal/services/hydro/domain"
)

// importDEM loads the cleaned DEM and pins the region to its grid
func importDEM(ctx context.Context, eng domain.TerrainEngine, path string) (domain.Conditioned, error) {
	ctx = stage(ctx, "import")
	if err := eng.ImportRaster(ctx, domain.ImportRasterParams{
		Input: path, Output: domain.LayerDEM, OverrideProjection: true,
	}); err != nil {
		return domain.Conditioned{}, err
	}
	if err := eng.SetRegion(ctx, domain.LayerDEM); err != nil {
		return domain.Conditioned{}, err
	}
	return domain.Conditioned{DEM: domain.LayerDEM}, nil
}

// condition fills depressions then accumulates flow over the filled surface
func condition(ctx context.Context, eng domain.TerrainEngine, c domain.Conditioned) (domain.Conditioned, error) {
	c.Filled, c.Direction, c.Accumulation = domain.LayerFilled, domain.LayerDirection, domain.LayerAccumulation
	if err := eng.FillDepressions(ctx, domain.FillParams{
		Input: c.DEM, Output: c.Filled, Direction: c.Direction,
	}); err != nil {
		return domain.Conditioned{}, err
	}
	if err := eng.Accumulate(ctx, domain.AccumulateParams{
		Elevation: c.Filled, Accumulation: c.Accumulation, Drainage: c.Direction, Threshold: 1,
	}); err != nil {
		return domain.Conditioned{}, err
	}
	logger.C(ctx).Debug().Msg("surface filled and flow accumulated")
	return c, nil
}

// Cells converts an area threshold to a cell count for a region
// The result is never below one cell
func Cells(km2 float64, r domain.Region) int {
	area := r.CellArea()
	if area <= 0 {
		return 1
	}
	return max(1, int(math.Round(km2*1e6/area)))
}

// CellThreshold reads the live region and converts km2 to a cell count
func CellThreshold(ctx context.Context, eng domain.TerrainEngine, km2 float64) (int, error) {
	r, err := eng.Region(ctx)
	if err != nil {
		return 0, err
	}
	cells := Cells(km2, r)
	logger.C(ctx).Info().Int("cells", cells).Float64("km2", km2).
		Float64("ewres", r.EWRes).Float64("nsres", r.NSRes).Msg("accumulation threshold")
	return cells, nil
}

// extractStreams derives the stream raster and vector
func extractStreams(ctx context.Context, eng domain.TerrainEngine, c domain.Conditioned, cells int) (domain.Streams, error) {
	s := domain.Streams{Raster: domain.LayerStreamRast, Vector: domain.LayerStreamVect, ThresholdCells: cells}
	if err := eng.ExtractStreams(ctx, domain.StreamParams{
		Elevation:    c.Filled,
		Accumulation: c.Accumulation,
		Threshold:    cells,
		StreamRaster: s.Raster,
		StreamVector: s.Vector,
	}); err != nil {
		return domain.Streams{}, err
	}
	return s, nil
}

// delineate grows the basin upstream of the snapped outlet and vectorises it
func delineate(ctx context.Context, eng domain.TerrainEngine, c domain.Conditioned, o domain.Outlet) (domain.Watershed, error) {
	w := domain.Watershed{Raster: domain.LayerBasinRast, Vector: domain.LayerBasinVect}
	if err := eng.DelineateWatershed(ctx, domain.WatershedParams{
		Drainage: c.Direction, Output: w.Raster, Outlet: o.Snapped,
	}); err != nil {
		return domain.Watershed{}, err
	}
	if err := eng.RasterToVector(ctx, domain.ToVectorParams{
		Input: w.Raster, Output: w.Vector, Type: "area", Smooth: true,
	}); err != nil {
		return domain.Watershed{}, err
	}
	return w, nil
}

// postProcess clips the network and outlet to the dissolved basin and masks the DEM
func postProcess(
	ctx context.Context,
	eng domain.TerrainEngine,
	c domain.Conditioned,
	s domain.Streams,
	w domain.Watershed,
	o domain.SWATOutlet,
) (domain.Products, error) {
	steps := []func() error{
		func() error {
			return eng.ExtractByType(ctx, domain.ExtractParams{Input: s.Vector, Output: domain.LayerStreamLines, Type: "line"})
		},
		func() error { return eng.BuildTopology(ctx, domain.LayerStreamLines) },
		func() error {
			return eng.Dissolve(ctx, domain.DissolveParams{Input: w.Vector, Output: domain.LayerBasinDiss, Column: "cat"})
		},
		func() error {
			return eng.Clip(ctx, domain.ClipParams{Input: domain.LayerStreamLines, Clip: domain.LayerBasinDiss, Output: domain.LayerStreamsClip})
		},
		func() error {
			return eng.SelectSpatial(ctx, domain.SelectParams{
				A: o.Layer, B: domain.LayerBasinDiss, Output: domain.LayerOutletClip, Operator: "within",
			})
		},
		func() error { return maskedCopy(ctx, eng, domain.LayerBasinDiss, c.Filled, domain.LayerMaskedDEM) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return domain.Products{}, err
		}
	}
	logger.C(ctx).Debug().Msg("post-processing complete")
	return domain.Products{
		Streams:   domain.LayerStreamsClip,
		Outlet:    domain.LayerOutletClip,
		Basin:     domain.LayerBasinDiss,
		MaskedDEM: domain.LayerMaskedDEM,
	}, nil
}

// maskedCopy copies src through a vector mask into dst
// The mask is always removed once applied, even when the copy fails
func maskedCopy(ctx context.Context, eng domain.TerrainEngine, mask, src, dst domain.Layer) (err error) {
	if err := eng.SetMask(ctx, mask); err != nil {
		return err
	}
	defer func() {
		if rerr := eng.RemoveMask(ctx); rerr != nil {
			if err == nil {
				err = rerr
				return
			}
			logger.C(ctx).Warn().Err(rerr).Msg("mask removal failed after copy error")
		}
	}()
	return eng.MapCalc(ctx, domain.MapCalcParams{Output: dst, Expression: string(src)})
}
