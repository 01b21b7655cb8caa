// Package main provides the entry point for the goacm CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goacm/cmd/goacm/commands"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "goacm",
		Short: "goacm - Excess all-cause mortality estimation",
		Long: `goacm fits a seasonal baseline to weekly all-cause deaths and
reports the excess mortality above it.

Commands:
  fit       Fit the baseline and export excess mortality`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewFitCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "goacm %s\n", version)
		},
	}
}
