package main

import (
	"fmt"

	"hydroflow/internal/core/runconfig"

	"github.com/spf13/cobra"
)

func newConfigCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the merged run configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration with the API key masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			if runconfig.Str(cfg.OpenTopographyAPIKey) != "" {
				cfg.OpenTopographyAPIKey = runconfig.Ptr("****")
			}
			b, err := runconfig.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	var out string
	save := &cobra.Command{
		Use:   "save",
		Short: "Write the merged configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			if err := runconfig.Save(cfg, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", out)
			return nil
		},
	}
	save.Flags().StringVar(&out, "out", "", "destination YAML file")
	_ = save.MarkFlagRequired("out")

	cmd.AddCommand(show, save)
	return cmd
}
