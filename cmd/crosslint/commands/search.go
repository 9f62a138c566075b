package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/report"
)

// SearchCommand holds the flags for the search command.
type SearchCommand struct {
	severity string
	tool     string
	rule     string
	path     string
	jsonOut  bool
}

// NewSearchCommand creates the search command, which filters the issues
// of a saved report.
func NewSearchCommand() *cobra.Command {
	cmd := &SearchCommand{}

	cobraCmd := &cobra.Command{
		Use:   "search <report-file>",
		Short: "Filter issues of a saved report",
		Long: `Search reads a previously written report (json, yaml, or .lz4
compressed) and prints the issues matching every given filter.

Examples:
  crosslint search report.json --severity high
  crosslint search report.json.lz4 --tool sonarqube --path src/payments`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.Run(args[0])
		},
	}

	cobraCmd.Flags().StringVar(&cmd.severity, "severity", "", "minimum severity")
	cobraCmd.Flags().StringVar(&cmd.tool, "tool", "", "exact tool name")
	cobraCmd.Flags().StringVar(&cmd.rule, "rule", "", "rule id substring")
	cobraCmd.Flags().StringVar(&cmd.path, "path", "", "canonical path substring")
	cobraCmd.Flags().BoolVar(&cmd.jsonOut, "json", false, "print matches as JSON")

	return cobraCmd
}

// Run executes the search command.
func (c *SearchCommand) Run(reportPath string) error {
	rep, err := report.ReadFile(reportPath)
	if err != nil {
		return err
	}

	matches := c.filter(rep.Issues)

	if c.jsonOut {
		filtered := *rep
		filtered.Issues = matches

		return report.WriteJSON(os.Stdout, &filtered)
	}

	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matching issues.")

		return nil
	}

	summary := report.New(rep.SourceVersion, rep.Project.Key, rep.Project.Path, rep.AnalyzedAt)
	summary.Issues = matches
	summary.ComputeProjectMetrics()

	return renderSummary(os.Stdout, summary, "")
}

func (c *SearchCommand) filter(issues []*finding.Issue) []*finding.Issue {
	minRank := 0
	if c.severity != "" {
		minRank = finding.ParseSeverity(c.severity).Num()
	}

	var matches []*finding.Issue

	for _, issue := range issues {
		if issue.Severity.Num() < minRank {
			continue
		}

		if c.tool != "" && !strings.EqualFold(issue.ToolName, c.tool) {
			continue
		}

		if c.rule != "" && !strings.Contains(issue.RuleID, c.rule) {
			continue
		}

		if c.path != "" && !strings.Contains(issue.Path(), c.path) {
			continue
		}

		matches = append(matches, issue)
	}

	return matches
}
