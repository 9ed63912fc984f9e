// Command hydroflow-api serves the run queue over HTTP
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"hydroflow/internal/core/runconfig"
	"hydroflow/internal/modkit"
	"hydroflow/internal/platform/config"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/platform/store"
	"hydroflow/internal/services/api"
	pipemod "hydroflow/internal/services/pipeline/module"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Get().Fatal().Err(err).Msg("cannot load .env")
	}
	logger.Init(logger.FromEnv())
	l := logger.Named("hydroflow-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	apiCfg := root.Prefix("HYDRO_API_")

	// every submission overlays this pair
	base, err := runconfig.LoadPair(
		apiCfg.MayString("CONFIG", "config.yaml"),
		apiCfg.MayString("DEFAULTS", "default_config.yaml"),
		os.LookupEnv,
	)
	if err != nil {
		l.Fatal().Err(err).Msg("base configuration")
	}

	st, err := store.Open(ctx, store.FromConfig("hydroflow-api", root), store.WithLogger(*logger.Get()))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if st.Enabled() {
		if err := st.Guard(ctx); err != nil {
			l.Fatal().Err(err).Msg("run ledger unreachable")
		}
	}

	deps := modkit.Deps{Log: *logger.Get(), Cfg: root, PG: st.PG}
	pipeline := pipemod.New(deps, pipemod.WithProgress(false))
	if err := pipeline.Prepare(ctx); err != nil {
		l.Fatal().Err(err).Msg("run ledger schema")
	}

	srv, err := api.New(api.FromConfig(root, api.Options{
		Deps:   deps,
		Runner: pipeline.Runner(),
		Ledger: pipeline.Ledger(),
		Base:   base,
	}))
	if err != nil {
		l.Fatal().Err(err).Msg("api setup")
	}

	l.Info().Str("addr", srv.Addr()).Bool("ledger", st.Enabled()).Msg("hydroflow-api starting")
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("hydroflow-api stopped")
		os.Exit(1)
	}
}
