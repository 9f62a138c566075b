package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/report"
)

// maxTableRows caps each summary table; the full data stays in the
// structured output formats.
const maxTableRows = 25

var severityColors = map[finding.Severity]*color.Color{
	finding.SeverityCritical: color.New(color.FgRed, color.Bold),
	finding.SeverityHigh:     color.New(color.FgRed),
	finding.SeverityMedium:   color.New(color.FgYellow),
	finding.SeverityLow:      color.New(color.FgCyan),
	finding.SeverityInfo:     color.New(color.FgWhite),
}

func colorSeverity(severity finding.Severity) string {
	c, ok := severityColors[severity]
	if !ok {
		return string(severity)
	}

	return c.Sprint(string(severity))
}

// renderSummary prints a terminal summary of the report. minSeverity
// filters the issues table only; counts always reflect the full report.
func renderSummary(w io.Writer, rep *report.Report, minSeverity string) error {
	metrics := rep.Project.Metrics

	fmt.Fprintf(w, "Project %s (%s)\n", rep.Project.Key, rep.Project.Path)
	fmt.Fprintf(w, "Analyzed %s\n", humanize.Time(rep.AnalyzedAt))
	fmt.Fprintf(w, "Issues: %d  Duplicate groups: %d  Normalization: %d/%d ok\n\n",
		metrics.TotalIssues, metrics.DuplicateGroups,
		metrics.Normalization.Successful, metrics.Normalization.Total)

	renderIssues(w, rep, minSeverity)
	renderHotspots(w, rep)
	renderViolations(w, rep)
	renderTemporal(w, rep)
	renderErrors(w, rep)

	return nil
}

func newSummaryTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false

	return tbl
}

func renderIssues(w io.Writer, rep *report.Report, minSeverity string) {
	minRank := 0
	if minSeverity != "" {
		minRank = finding.ParseSeverity(minSeverity).Num()
	}

	tbl := newSummaryTable(w)
	tbl.AppendHeader(table.Row{"Severity", "Tool", "Rule", "Location", "Title"})

	shown := 0

	for _, issue := range rep.Issues {
		if issue.Severity.Num() < minRank {
			continue
		}

		if shown == maxTableRows {
			tbl.AppendFooter(table.Row{fmt.Sprintf("... and %d more", len(rep.Issues)-shown)})

			break
		}

		location := issue.Path()
		if issue.HasLine() {
			location += ":" + strconv.Itoa(issue.Line)
		}

		tbl.AppendRow(table.Row{
			colorSeverity(issue.Severity), issue.ToolName, issue.RuleID, location, issue.Title,
		})

		shown++
	}

	if shown > 0 {
		tbl.Render()
		fmt.Fprintln(w)
	}
}

func renderHotspots(w io.Writer, rep *report.Report) {
	if len(rep.FunctionClusters) == 0 {
		return
	}

	fmt.Fprintln(w, "Function hotspots:")

	tbl := newSummaryTable(w)
	tbl.AppendHeader(table.Row{"Function", "File", "Issues", "Score", "Risk"})

	for i, cluster := range rep.FunctionClusters {
		if i == maxTableRows {
			break
		}

		tbl.AppendRow(table.Row{
			cluster.Span.Name, cluster.Span.FilePath,
			len(cluster.Issues), cluster.HotspotScore, string(cluster.Risk),
		})
	}

	tbl.Render()
	fmt.Fprintln(w)
}

func renderViolations(w io.Writer, rep *report.Report) {
	if len(rep.ArchitecturalViolations) == 0 {
		return
	}

	fmt.Fprintln(w, "Architectural violations:")

	tbl := newSummaryTable(w)
	tbl.AppendHeader(table.Row{"Type", "Severity", "Modules", "Description"})

	for i, violation := range rep.ArchitecturalViolations {
		if i == maxTableRows {
			break
		}

		tbl.AppendRow(table.Row{
			string(violation.Type), violation.Severity,
			len(violation.Modules), violation.Description,
		})
	}

	tbl.Render()
	fmt.Fprintln(w)
}

func renderTemporal(w io.Writer, rep *report.Report) {
	if rep.Temporal == nil {
		return
	}

	t := rep.Temporal

	fmt.Fprintf(w, "History: %d commits, %d files, %d patterns, %d regressions\n",
		len(t.Commits), len(t.FileHistory), len(t.Patterns), len(t.Regressions))

	for _, trend := range t.Trends {
		fmt.Fprintf(w, "  trend %s: %s\n", trend.Metric, string(trend.Direction))
	}

	fmt.Fprintln(w)
}

func renderErrors(w io.Writer, rep *report.Report) {
	if len(rep.Errors) == 0 {
		return
	}

	warn := color.New(color.FgYellow)

	warn.Fprintf(w, "Recovered errors (%d):\n", len(rep.Errors))

	for _, record := range rep.Errors {
		warn.Fprintf(w, "  [%s/%s] %s: %s\n", record.Kind, record.Stage, record.Subject, record.Message)
	}
}
