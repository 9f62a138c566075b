// Package main provides the entry point for the crosslint CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crosslint-tech/crosslint/cmd/crosslint/commands"
	"github.com/crosslint-tech/crosslint/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crosslint",
		Short: "Crosslint - correlation and analytics over static-analysis findings",
		Long: `Crosslint ingests findings from multiple static-analysis tools and
produces a single deduplicated, correlated report: canonical issues,
duplicate groups, function hotspots, a module dependency graph with
architectural violations, and a git-history temporal analysis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: crosslint.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewProjectsCommand())
	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(commands.NewTestCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewCapabilitiesCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "crosslint %s\n", version.String())
		},
	}
}
