package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"hydroflow/internal/core/runconfig"
	"hydroflow/internal/modkit"
	"hydroflow/internal/modkit/repokit"
	"hydroflow/internal/platform/config"
	"hydroflow/internal/platform/logger"
	"hydroflow/internal/platform/store"
	pipe "hydroflow/internal/services/pipeline/domain"
	pipemod "hydroflow/internal/services/pipeline/module"

	"github.com/spf13/cobra"
)

func newRunCmd(f *rootFlags) *cobra.Command {
	var progress bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download, preprocess, analyse and export one site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := f.load()
			if err != nil {
				return err
			}

			env := config.New()
			pg, closeLedger := openLedger(ctx, env)
			defer closeLedger()

			var opts []pipemod.Option
			if cmd.Flags().Changed("progress") {
				opts = append(opts, pipemod.WithProgress(progress))
			}
			mod := pipemod.New(modkit.Deps{Log: *logger.Get(), Cfg: env, PG: pg}, opts...)
			if err := mod.Prepare(ctx); err != nil {
				logger.Named("cli").Warn().Err(err).Msg("run ledger schema check failed; continuing")
			}

			rep, err := mod.Runner().Run(ctx, cfg)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep, runconfig.Int(cfg.TargetEPSG, 0))
			return nil
		},
	}
	cmd.Flags().BoolVar(&progress, "progress", false, "draw a download progress bar")
	return cmd
}

// openLedger opens the run ledger when HYDRO_LEDGER_DBURL is set
// A CLI run never fails because the ledger is down
func openLedger(ctx context.Context, env config.Conf) (repokit.TxRunner, func()) {
	log := logger.Named("cli")
	sc := store.FromConfig("hydroflow", env)
	if !sc.PG.Enabled {
		return nil, func() {}
	}
	st, err := store.Open(ctx, sc, store.WithLogger(*logger.Get()))
	if err != nil {
		log.Warn().Err(err).Msg("run ledger unavailable; continuing without it")
		return nil, func() {}
	}
	return st.PG, func() {
		if err := st.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("run ledger close failed")
		}
	}
}

func printReport(w io.Writer, rep pipe.Report, epsg int) {
	fmt.Fprintf(w, "run         %s\n", rep.RunID)
	fmt.Fprintf(w, "session     %s\n", rep.Session)
	fmt.Fprintf(w, "bbox        %s\n", rep.BBox)
	fmt.Fprintf(w, "outlet      %.2f %.2f (EPSG:%d)\n", rep.Outlet.X(), rep.Outlet.Y(), epsg)
	fmt.Fprintf(w, "snapped     %.1f m from input\n", rep.SnapDistance)
	fmt.Fprintf(w, "threshold   %d cells\n", rep.ThresholdCells)
	fmt.Fprintf(w, "geopackage  %s\n", rep.Artifacts.GeoPackage)
	fmt.Fprintf(w, "masked dem  %s\n", rep.Artifacts.MaskedDEM)
	fmt.Fprintf(w, "elapsed     %s\n", rep.Elapsed.Round(time.Millisecond))
}
