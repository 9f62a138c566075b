package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/crosslint-tech/crosslint/pkg/adapters"
	"github.com/crosslint-tech/crosslint/pkg/pipeline"
)

// NewTestCommand creates the test command, which dry-runs the adapters
// over report files without starting the pipeline.
func NewTestCommand() *cobra.Command {
	var reports []string

	cobraCmd := &cobra.Command{
		Use:   "test",
		Short: "Check that tool report files parse cleanly",
		Long: `Test parses each given report file with its tool adapter and prints
the finding counts, without running any analysis. Non-zero exit when any
report fails to parse.

Examples:
  crosslint test --report sonarqube=sonar.json --report semgrep=semgrep.json`,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return runTest(cobraCmd, reports)
		},
	}

	cobraCmd.Flags().StringArrayVar(&reports, "report", nil, "tool report file as tool=path (repeatable)")

	return cobraCmd
}

func runTest(cobraCmd *cobra.Command, raw []string) error {
	toolReports, err := parseReportFlags(raw)
	if err != nil {
		return err
	}

	registry := adapters.NewRegistry()

	failed := 0

	for _, tr := range toolReports {
		count, parseErr := parseOne(cobraCmd, registry, tr)
		if parseErr != nil {
			failed++

			color.New(color.FgRed).Fprintf(os.Stdout, "FAIL %s (%s): %v\n", tr.Tool, tr.Path, parseErr)

			continue
		}

		color.New(color.FgGreen).Fprintf(os.Stdout, "OK   %s (%s): %d findings\n", tr.Tool, tr.Path, count)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d reports failed to parse", failed, len(toolReports))
	}

	return nil
}

func parseOne(cobraCmd *cobra.Command, registry *adapters.Registry, tr pipeline.ToolReport) (int, error) {
	adapter, err := registry.Get(tr.Tool)
	if err != nil {
		return 0, err
	}

	file, err := os.Open(tr.Path)
	if err != nil {
		return 0, fmt.Errorf("open report: %w", err)
	}
	defer file.Close()

	raws, err := adapter.Parse(cobraCmd.Context(), file)
	if err != nil {
		return 0, err
	}

	return len(raws), nil
}
