// Package api assembles the run service: middleware, docs, meta and run routes
package api

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"hydroflow/internal/core/runconfig"
	"hydroflow/internal/modkit"
	"hydroflow/internal/modkit/swaggerkit"
	"hydroflow/internal/platform/config"
	"hydroflow/internal/platform/logger"
	phttp "hydroflow/internal/platform/net/http"
	"hydroflow/internal/platform/net/middleware"

	metamod "hydroflow/internal/services/api/meta/module"
	runsmod "hydroflow/internal/services/api/runs/module"
	pipe "hydroflow/internal/services/pipeline/domain"

	"golang.org/x/sync/errgroup"
)

//go:embed openapi.yaml
var openapiDoc []byte

// Options are the API options
type Options struct {
	Deps   modkit.Deps
	Runner pipe.RunnerPort
	// Ledger is nil when the run ledger is disabled
	Ledger pipe.LedgerRepo
	// Base is the run configuration every submission overlays
	Base runconfig.Config

	EnableSwagger  bool
	EnableProfiler bool
}

// API is the assembled HTTP server plus its run worker
type API struct {
	srv  *phttp.Server
	runs *runsmod.Module
}

// FromConfig fills the toggles from HYDRO_API_*
func FromConfig(cfg config.Conf, o Options) Options {
	p := cfg.Prefix("HYDRO_API_")
	o.EnableSwagger = p.MayBool("SWAGGER", true)
	o.EnableProfiler = p.MayBool("PROFILER", false)
	return o
}

// New builds the server; the listen address comes from HYDRO_API_ADDR
func New(opt Options) (*API, error) {
	cfg := opt.Deps.Cfg.Prefix("HYDRO_API_")
	srv := phttp.NewServer(cfg)
	r := srv.Router()

	r.Use(
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.LogContext(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow:  cfg.MayDuration("SLOW_REQUEST", 2*time.Second),
			Quiet: []string{"/healthz", "/readyz"},
		}),
		middleware.RecoverJSON,
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", []string{"*"}),
		}),
	)

	runs := runsmod.New(opt.Deps, opt.Runner, opt.Ledger, opt.Base)
	metamod.New(opt.Deps).MountRoutes(r)
	r.Route("/api", func(api phttp.Router) {
		api.Use(middleware.NoCache())
		runs.MountRoutes(api)
	})
	if opt.EnableSwagger {
		if err := swaggerkit.Mount(r, openapiDoc, "/"); err != nil {
			return nil, err
		}
	}
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	return &API{srv: srv, runs: runs}, nil
}

// Handler exposes the root handler (tests)
func (a *API) Handler() http.Handler { return a.srv.Handler() }

// Addr is the configured listen address
func (a *API) Addr() string { return a.srv.Addr() }

// Run serves HTTP and drives the run worker until ctx is done or either fails
func (a *API) Run(ctx context.Context) error {
	log := logger.Named("api")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.runs.Run(gctx) })
	g.Go(func() error { return a.srv.Run(gctx) })
	err := g.Wait()
	log.Info().Err(err).Msg("api stopped")
	return err
}
