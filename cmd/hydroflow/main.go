// Command hydroflow delineates a watershed around a point from a DEM tile
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"hydroflow/internal/core/runconfig"
	"hydroflow/internal/core/version"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootFlags are shared by every command that reads the run configuration
type rootFlags struct {
	config   string
	defaults string
	envFile  string
}

func (f *rootFlags) load() (runconfig.Config, error) {
	return runconfig.LoadPair(f.config, f.defaults, os.LookupEnv)
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "hydroflow",
		Short:         "Watershed delineation from a point, a box size and a DEM",
		Version:       version.Info().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnv(f.envFile, cmd.Flags().Changed("env-file"))
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.config, "config", "config.yaml", "user configuration file")
	pf.StringVar(&f.defaults, "defaults", "default_config.yaml", "defaults configuration file")
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file read before anything else")

	cmd.AddCommand(
		newRunCmd(f),
		newValidateCmd(f),
		newBBoxCmd(),
		newConfigCmd(f),
	)
	return cmd
}

// loadEnv reads a dotenv file without overriding the process environment
// A missing default file is fine; a missing explicit one is not
func loadEnv(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return perr.Wrapf(err, perr.ErrorCodeConfig, "cannot load env file %s", path)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Get().Error().Err(err).Str("code", perr.CodeOf(err).String()).Msg("hydroflow failed")
		os.Exit(1)
	}
}
