package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crosslint-tech/crosslint/pkg/observability"
	"github.com/crosslint-tech/crosslint/pkg/pipeline"
	"github.com/crosslint-tech/crosslint/pkg/report"
	"github.com/crosslint-tech/crosslint/pkg/temporal"
	"github.com/crosslint-tech/crosslint/pkg/version"
)

// ErrBadReportFlag is returned when a --report value is not tool=path.
var ErrBadReportFlag = errors.New("report flag must be of the form tool=path")

// AnalyzeCommand holds the flags for the analyze command.
type AnalyzeCommand struct {
	projectKey string
	repoPath   string
	reports    []string
	output     string
	format     string
	severity   string
	since      string
	until      string
	timeout    int
	jsonOut    bool
	validate   bool
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	cmd := &AnalyzeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "analyze <project-root>",
		Short: "Run the full correlation pipeline over tool reports",
		Long: `Analyze ingests one or more tool report files, correlates their
findings against the project source tree and git history, and emits the
unified report.

Examples:
  crosslint analyze . --report sonarqube=sonar.json --report semgrep=semgrep.json
  crosslint analyze ./shop --repo ./shop --report generic=issues.json -o report.json.lz4
  crosslint analyze . --report generic=issues.json --format table --severity high`,
		Args: cobra.ExactArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.Run(cobraCmd, args[0])
		},
	}

	cobraCmd.Flags().StringVar(&cmd.projectKey, "project-key", "", "project identifier stamped into the report")
	cobraCmd.Flags().StringVar(&cmd.repoPath, "repo", "", "git repository for temporal analysis (default: none)")
	cobraCmd.Flags().StringArrayVar(&cmd.reports, "report", nil, "tool report file as tool=path (repeatable)")
	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", "", "output file (default: stdout; .lz4 suffix compresses)")
	cobraCmd.Flags().StringVarP(&cmd.format, "format", "f", "json", "output format: json, yaml, or table")
	cobraCmd.Flags().StringVar(&cmd.severity, "severity", "", "minimum severity shown in table output")
	cobraCmd.Flags().StringVar(&cmd.since, "since", "", "temporal window start (YYYY-MM-DD)")
	cobraCmd.Flags().StringVar(&cmd.until, "until", "", "temporal window end (YYYY-MM-DD)")
	cobraCmd.Flags().IntVar(&cmd.timeout, "timeout", 0, "overall analysis timeout in seconds (0: config default)")
	cobraCmd.Flags().BoolVar(&cmd.jsonOut, "json", false, "shorthand for --format json")
	cobraCmd.Flags().BoolVar(&cmd.validate, "validate", false, "validate the report against the embedded schema")

	return cobraCmd
}

// Run executes the analyze command.
func (c *AnalyzeCommand) Run(cobraCmd *cobra.Command, projectRoot string) error {
	cfg, err := loadConfig(cobraCmd)
	if err != nil {
		return err
	}

	providers, err := observability.Init(observabilityConfig(cobraCmd, cfg))
	if err != nil {
		return fmt.Errorf("initialize observability: %w", err)
	}

	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create pipeline metrics: %w", err)
	}

	toolReports, err := parseReportFlags(c.reports)
	if err != nil {
		return err
	}

	window, err := c.window()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg,
		pipeline.WithLogger(providers.Logger),
		pipeline.WithTracer(providers.Tracer),
		pipeline.WithMetrics(metrics),
		pipeline.WithVersion(version.Version),
	)
	if err != nil {
		return err
	}

	timeout := cfg.Analysis.Timeout
	if c.timeout > 0 {
		timeout = time.Duration(c.timeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rep, err := p.Run(ctx, pipeline.Input{
		ProjectKey:  c.projectKey,
		ProjectRoot: projectRoot,
		RepoPath:    c.repoPath,
		Reports:     toolReports,
		Window:      window,
	})
	if err != nil {
		return err
	}

	if c.validate {
		validateErr := report.Validate(rep)
		if validateErr != nil {
			return validateErr
		}
	}

	return c.emit(rep)
}

// emit writes the report to the selected destination and format.
// Issues in the report never affect the exit code; only emission
// failures do.
func (c *AnalyzeCommand) emit(rep *report.Report) error {
	if c.output != "" {
		return report.WriteFile(c.output, rep)
	}

	format := strings.ToLower(c.format)
	if c.jsonOut {
		format = "json"
	}

	switch format {
	case "yaml":
		return report.WriteYAML(os.Stdout, rep)
	case "table":
		return renderSummary(os.Stdout, rep, c.severity)
	default:
		return report.WriteJSON(os.Stdout, rep)
	}
}

func (c *AnalyzeCommand) window() (temporal.Window, error) {
	var window temporal.Window

	if c.since != "" {
		since, err := time.Parse("2006-01-02", c.since)
		if err != nil {
			return window, fmt.Errorf("parse --since: %w", err)
		}

		window.Start = &since
	}

	if c.until != "" {
		until, err := time.Parse("2006-01-02", c.until)
		if err != nil {
			return window, fmt.Errorf("parse --until: %w", err)
		}

		window.End = &until
	}

	return window, nil
}

// parseReportFlags splits repeated tool=path values.
func parseReportFlags(raw []string) ([]pipeline.ToolReport, error) {
	reports := make([]pipeline.ToolReport, 0, len(raw))

	for _, entry := range raw {
		tool, path, found := strings.Cut(entry, "=")
		if !found || tool == "" || path == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadReportFlag, entry)
		}

		reports = append(reports, pipeline.ToolReport{Tool: tool, Path: path})
	}

	return reports, nil
}
