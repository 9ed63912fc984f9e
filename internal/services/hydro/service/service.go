// Package service runs the hydrological analysis inside a terrain session
// and exports its products
//
// The analysis is a strict linear chain. Each stage reads the typed output of
// the previous one and returns its own, even though the engine keeps the
// data under fixed layer names. The only early exit is a point with no
// stream to snap to.
package service

import (
	"context"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/services/hydro/domain"
)

// Service implements domain.AnalyzerPort
type Service struct {
	proj domain.PointProjector
}

// New builds the analyzer around the projector used for the input point
func New(proj domain.PointProjector) *Service {
	if proj == nil {
		panic("hydro.Service requires a non nil PointProjector")
	}
	return &Service{proj: proj}
}

// Analyze runs every stage in order and returns the snapped outlet
func (s *Service) Analyze(ctx context.Context, eng domain.TerrainEngine, req domain.Request) (domain.Result, error) {
	res, err := s.analyze(ctx, eng, req)
	if err == nil {
		return res, nil
	}
	log := logger.C(ctx)
	if perr.IsCode(err, perr.ErrorCodeEngine) {
		log.Error().Err(err).Msg("terrain engine error during hydrological analysis")
		return domain.Result{}, err
	}
	log.Error().Err(err).Msg("unexpected error during hydrological analysis")
	return domain.Result{}, perr.Wrap(err, perr.CodeOf(err), "hydrological analysis failed")
}

func (s *Service) analyze(ctx context.Context, eng domain.TerrainEngine, req domain.Request) (domain.Result, error) {
	if err := validate(req); err != nil {
		return domain.Result{}, err
	}

	cond, err := importDEM(ctx, eng, req.DEMPath)
	if err != nil {
		return domain.Result{}, err
	}
	if cond, err = condition(stage(ctx, "condition"), eng, cond); err != nil {
		return domain.Result{}, err
	}
	cells, err := CellThreshold(stage(ctx, "threshold"), eng, req.ThresholdKm2)
	if err != nil {
		return domain.Result{}, err
	}
	streams, err := extractStreams(stage(ctx, "streams"), eng, cond, cells)
	if err != nil {
		return domain.Result{}, err
	}
	outlet, err := s.snapOutlet(stage(ctx, "outlet"), eng, req, streams)
	if err != nil {
		return domain.Result{}, err
	}
	basin, err := delineate(stage(ctx, "watershed"), eng, cond, outlet)
	if err != nil {
		return domain.Result{}, err
	}
	swat, err := prepareSWATOutlet(stage(ctx, "swat_outlet"), eng, req.WorkDir, outlet)
	if err != nil {
		return domain.Result{}, err
	}
	products, err := postProcess(stage(ctx, "post"), eng, cond, streams, basin, swat)
	if err != nil {
		return domain.Result{}, err
	}

	logger.C(ctx).Info().
		Float64("outlet_x", outlet.Snapped.X()).Float64("outlet_y", outlet.Snapped.Y()).
		Float64("snap_distance", outlet.Distance).Msg("hydrological analysis complete")

	return domain.Result{
		Outlet:         outlet.Snapped,
		Input:          outlet.Input,
		Distance:       outlet.Distance,
		ThresholdCells: streams.ThresholdCells,
		Products:       products,
	}, nil
}

func validate(req domain.Request) error {
	switch {
	case req.DEMPath == "":
		return perr.WithField(perr.Validationf("DEM path is required"), "DEMPath")
	case req.WorkDir == "":
		return perr.WithField(perr.Validationf("work dir is required"), "WorkDir")
	case req.TargetEPSG <= 0:
		return perr.WithField(perr.Validationf("target EPSG is required"), "TargetEPSG")
	case req.SourceEPSG != 0 && req.SourceEPSG != 4326:
		return perr.WithField(perr.Validationf("input coordinates must be EPSG:4326, got EPSG:%d", req.SourceEPSG), "SourceEPSG")
	case req.ThresholdKm2 < 0:
		return perr.WithField(perr.Validationf("stream threshold must be >= 0"), "ThresholdKm2")
	}
	return nil
}

func stage(ctx context.Context, name string) context.Context {
	ctx = logger.WithStage(ctx, name)
	logger.C(ctx).Debug().Msg("stage start")
	return ctx
}
