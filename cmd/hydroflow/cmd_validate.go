package main

import (
	"fmt"

	"hydroflow/internal/platform/execx"
	"hydroflow/internal/services/pipeline/envcheck"

	"github.com/spf13/cobra"
)

func newValidateCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the tool installs and run parameters without running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			tc, err := envcheck.Environment(cmd.Context(), cfg, execx.FromEnviron(), envcheck.OS())
			if err != nil {
				return err
			}
			if err := envcheck.Params(cfg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "grass       %s\n", tc.GRASSLauncher)
			fmt.Fprintf(out, "gdalwarp    %s\n", tc.Warp)
			if tc.Transform != "" {
				fmt.Fprintf(out, "transform   %s\n", tc.Transform)
			}
			fmt.Fprintln(out, "configuration OK")
			return nil
		},
	}
}
