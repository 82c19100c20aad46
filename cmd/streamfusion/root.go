package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// binVersion is overridden at build time via -ldflags; it defaults to
// a development marker so a locally-built binary is easy to spot.
var binVersion = "0.1.0-dev"

// NewRootCommand constructs the streamfusion root Cobra command and
// wires its subcommands.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "streamfusion",
		Short:         "streamfusion runs declarative, fused map/filter pipelines",
		Long:          "streamfusion materializes named map/filter pipelines over JSON input, either once from the command line or continuously behind an HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "path to a streamfusion config file (default: search ./streamfusion.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the streamfusion version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "streamfusion version %s\n", binVersion)
		},
	})

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewRunCommand())

	return cmd
}
