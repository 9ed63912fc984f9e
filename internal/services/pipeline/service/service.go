// Package service runs one hydrology pipeline end to end
//
// The run is all-or-nothing: validate the environment and parameters,
// download the DEM, preprocess it, open a terrain session, analyze, export.
// The first failure aborts the remaining stages. Temporary data is removed
// afterwards unless DEV_MODE is set.
package service

import (
	"context"
	"time"

	"hydroflow/internal/core/geo"
	"hydroflow/internal/core/runconfig"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/execx"
	"hydroflow/internal/platform/logger"
	hydro "hydroflow/internal/services/hydro/domain"
	"hydroflow/internal/services/pipeline/domain"
	"hydroflow/internal/services/pipeline/envcheck"
	"hydroflow/internal/services/pipeline/guardrails"

	"github.com/google/uuid"
)

// Config holds the process level knobs of the run service
type Config struct {
	Budgets guardrails.Budgets

	// Progress renders a download progress bar on the terminal
	Progress bool
}

// Service implements domain.RunnerPort
type Service struct {
	Adapters domain.Adapters
	Cfg      Config

	// Ledger is optional; nil disables run bookkeeping
	Ledger domain.Ledger

	// Base is the environment external tools start from
	Base  execx.Context
	Probe envcheck.Probe
	Now   func() time.Time
}

// New constructs the run service over the real process environment
func New(adapters domain.Adapters, cfg Config, ledger domain.Ledger) *Service {
	if adapters == nil {
		panic("pipeline.Service requires non nil Adapters")
	}
	return &Service{
		Adapters: adapters,
		Cfg:      cfg,
		Ledger:   ledger,
		Base:     execx.FromEnviron(),
		Probe:    envcheck.OS(),
		Now:      time.Now,
	}
}

// Run executes one pipeline under a fresh run id
func (s *Service) Run(ctx context.Context, cfg runconfig.Config) (domain.Report, error) {
	return s.RunAs(ctx, uuid.New(), cfg)
}

// RunAs executes one pipeline under a caller chosen run id
func (s *Service) RunAs(ctx context.Context, id uuid.UUID, cfg runconfig.Config) (domain.Report, error) {
	started := s.Now()
	session := SessionName(runconfig.Str(cfg.SiteName), started)
	ctx = logger.WithRun(ctx, id.String(), session)
	ctx, cancel := guardrails.WithRun(ctx, s.Cfg.Budgets)
	defer cancel()

	rep := domain.Report{RunID: id, Session: session}
	s.start(ctx, domain.Run{
		ID:        id,
		Site:      runconfig.Str(cfg.SiteName),
		Session:   session,
		Status:    domain.StatusRunning,
		StartedAt: started,
		EPSG:      runconfig.Int(cfg.TargetEPSG, 0),
	})

	err := s.run(ctx, cfg, session, &rep)
	rep.Elapsed = s.Now().Sub(started)
	s.finish(ctx, id, rep, err)

	log := logger.C(ctx)
	if err != nil {
		log.Error().Err(err).Str("code", perr.CodeOf(err).String()).Dur("elapsed", rep.Elapsed).Msg("pipeline failed")
		return rep, err
	}
	log.Info().Str("output_dir", rep.OutputDir).Dur("elapsed", rep.Elapsed).Msg("pipeline complete")
	return rep, nil
}

func (s *Service) run(ctx context.Context, cfg runconfig.Config, session string, rep *domain.Report) error {
	log := logger.C(ctx)

	tc, err := envcheck.Environment(ctx, cfg, s.Base, s.Probe)
	if err != nil {
		return err
	}
	if err := envcheck.Params(cfg); err != nil {
		return err
	}

	lat, lon := runconfig.Float(cfg.Lat, 0), runconfig.Float(cfg.Lon, 0)
	epsg := runconfig.Int(cfg.TargetEPSG, 0)
	rep.BBox = geo.BBoxWGS84(lat, lon, runconfig.Float(cfg.BBoxSizeKm, 0))
	if !rep.BBox.Valid() {
		return perr.WithField(perr.Validationf("bounding box %s leaves [-180,180]x[-90,90]", rep.BBox), "BBOX_SIZE_KM")
	}
	lay := Plan(cfg, session)
	rep.OutputDir = lay.Output
	log.Info().Str("bbox", rep.BBox.String()).Int("epsg", epsg).Msg("pipeline start")

	if !runconfig.Bool(cfg.DevMode) {
		defer s.cleanup(ctx, lay)
	}
	if err := makeDirs(lay); err != nil {
		return err
	}

	dctx, cancel := guardrails.ForDownload(ctx, s.Cfg.Budgets)
	raw, err := s.Adapters.DEMSource(runconfig.Str(cfg.OpenTopographyAPIKey), s.Cfg.Progress).Download(logger.WithStage(dctx, "download"), rep.BBox, lay.Temp)
	cancel()
	if err != nil {
		return err
	}

	pctx, cancel := guardrails.ForPreprocess(ctx, s.Cfg.Budgets)
	cleaned, err := s.preprocess(logger.WithStage(pctx, "preprocess"), tc, raw, lay.Temp, epsg, runconfig.Float(cfg.NoDataValue, 0))
	cancel()
	if err != nil {
		return err
	}

	actx, cancel := guardrails.ForAnalyze(ctx, s.Cfg.Budgets)
	defer cancel()
	eng, err := s.Adapters.Terrain(logger.WithStage(actx, "session"), tc, lay.Session)
	if err != nil {
		return err
	}
	an := s.Adapters.Analyzer(tc, epsg)
	res, err := an.Analyze(actx, eng, hydro.Request{
		DEMPath:      cleaned,
		WorkDir:      lay.Temp,
		Lat:          lat,
		Lon:          lon,
		ThresholdKm2: runconfig.Float(cfg.StreamThresholdKm2, 0),
		SourceEPSG:   geo.EPSGWGS84,
		TargetEPSG:   epsg,
	})
	if err != nil {
		return err
	}
	rep.Outlet, rep.Input = res.Outlet, res.Input
	rep.SnapDistance, rep.ThresholdCells = res.Distance, res.ThresholdCells
	log.Info().Float64("x", res.Outlet.X()).Float64("y", res.Outlet.Y()).Int("epsg", epsg).Msg("outlet")

	ectx, cancel := guardrails.ForExport(ctx, s.Cfg.Budgets)
	defer cancel()
	arts, err := an.Export(logger.WithStage(ectx, "export"), eng, res.Products, lay.Output)
	if err != nil {
		return err
	}
	rep.Artifacts = arts
	return nil
}

func (s *Service) start(ctx context.Context, r domain.Run) {
	if s.Ledger == nil {
		return
	}
	if err := s.Ledger.Start(ctx, r); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("run ledger start failed")
	}
}

func (s *Service) finish(ctx context.Context, id uuid.UUID, rep domain.Report, runErr error) {
	if s.Ledger == nil {
		return
	}
	f := domain.Finish{Status: domain.StatusSucceeded}
	if runErr != nil {
		f.Status, f.ErrText = domain.StatusFailed, runErr.Error()
	} else {
		outlet := rep.Outlet
		f.Outlet = &outlet
	}
	fctx := context.WithoutCancel(ctx)
	err := s.Ledger.Finish(fctx, id, f)
	if perr.IsRetryable(err) {
		err = s.Ledger.Finish(fctx, id, f)
	}
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("run ledger finish failed")
	}
}
