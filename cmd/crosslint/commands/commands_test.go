package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/report"
)

func init() {
	// Keep assertions independent of the test terminal.
	color.NoColor = true //nolint:reassign // intentional override of library global
}

func sampleIssue(id, tool, path string, severity finding.Severity) *finding.Issue {
	return &finding.Issue{
		ID:       id,
		ToolName: tool,
		RuleID:   "javascript:S1523",
		Title:    "Dynamic code execution",
		Severity: severity,
		Entity:   &finding.CanonicalEntity{CanonicalPath: path},
		Line:     4,
	}
}

func TestParseReportFlags(t *testing.T) {
	t.Parallel()

	reports, err := parseReportFlags([]string{"sonarqube=sonar.json", "semgrep=out/semgrep.json"})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "sonarqube", reports[0].Tool)
	assert.Equal(t, "out/semgrep.json", reports[1].Path)
}

func TestParseReportFlagsRejectsBadForms(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"sonar.json", "=sonar.json", "sonarqube="} {
		_, err := parseReportFlags([]string{bad})
		require.ErrorIs(t, err, ErrBadReportFlag, bad)
	}
}

func TestRenderSummaryFiltersBySeverity(t *testing.T) {
	t.Parallel()

	rep := report.New("test", "shop", "/tmp/shop", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rep.Issues = []*finding.Issue{
		sampleIssue("a", "sonarqube", "src/app.js", finding.SeverityCritical),
		sampleIssue("b", "semgrep", "src/util.js", finding.SeverityLow),
	}
	rep.ComputeProjectMetrics()

	var buf bytes.Buffer
	require.NoError(t, renderSummary(&buf, rep, "high"))

	out := buf.String()
	assert.Contains(t, out, "src/app.js:4")
	assert.NotContains(t, out, "src/util.js")
	assert.Contains(t, out, "Issues: 2")
}

func TestRenderSummaryEmptyReport(t *testing.T) {
	t.Parallel()

	rep := report.New("test", "empty", "/tmp/empty", time.Now())
	rep.ComputeProjectMetrics()

	var buf bytes.Buffer
	require.NoError(t, renderSummary(&buf, rep, ""))

	assert.Contains(t, buf.String(), "Issues: 0")
}

func TestSearchFilter(t *testing.T) {
	t.Parallel()

	issues := []*finding.Issue{
		sampleIssue("a", "sonarqube", "src/app.js", finding.SeverityCritical),
		sampleIssue("b", "semgrep", "src/util.js", finding.SeverityLow),
		sampleIssue("c", "sonarqube", "lib/db.js", finding.SeverityHigh),
	}

	cmd := &SearchCommand{tool: "sonarqube", severity: "high"}
	matches := cmd.filter(issues)
	require.Len(t, matches, 2)

	cmd = &SearchCommand{path: "src/"}
	matches = cmd.filter(issues)
	require.Len(t, matches, 2)

	cmd = &SearchCommand{rule: "S1523", severity: "critical"}
	matches = cmd.filter(issues)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestIsReportPath(t *testing.T) {
	t.Parallel()

	assert.True(t, isReportPath("out/report.json"))
	assert.True(t, isReportPath("report.yaml.lz4"))
	assert.False(t, isReportPath("src/app.js"))
	assert.False(t, isReportPath("notes.txt"))
}
