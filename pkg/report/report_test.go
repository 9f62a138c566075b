package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslint-tech/crosslint/pkg/finding"
)

var testAnalyzedAt = time.Date(2025, time.June, 10, 8, 30, 0, 0, time.UTC)

func sampleReport() *Report {
	resolver := finding.NewResolver()

	r := New("1.2.0", "shop", "/work/shop", testAnalyzedAt)
	r.Issues = []*finding.Issue{
		{
			ID:           "i1",
			ToolName:     "sonarqube",
			RuleID:       "javascript:S2703",
			Description:  "Variable is not initialized",
			Severity:     finding.SeverityCritical,
			AnalysisType: finding.TypeSecurity,
			Entity:       resolver.Resolve("src/a.js"),
			Line:         42,
		},
		{
			ID:           "i2",
			ToolName:     "semgrep",
			RuleID:       "javascript.uninit",
			Description:  "Variable not initialized before use",
			Severity:     finding.SeverityHigh,
			AnalysisType: finding.TypeSecurity,
			Entity:       resolver.Resolve("src/a.js"),
			Line:         43,
		},
	}
	r.ComputeProjectMetrics()

	return r
}

// --- Schema validation ---.

func TestValidateAcceptsWellFormedReport(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate(sampleReport()))
}

func TestValidateRejectsBadSeverity(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Issues[0].Severity = "catastrophic"

	err := Validate(r)
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestValidateRejectsMissingSource(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Source = ""

	require.ErrorIs(t, Validate(r), ErrSchemaViolation)
}

// --- Error records ---.

func TestErrorRecordDeterministicID(t *testing.T) {
	t.Parallel()

	first := NewErrorRecord(ErrParse, "adapters", "semgrep.json", "unexpected EOF")
	second := NewErrorRecord(ErrParse, "adapters", "semgrep.json", "unexpected EOF")

	assert.Equal(t, first.ID, second.ID)

	other := NewErrorRecord(ErrTimeout, "adapters", "semgrep.json", "deadline")
	assert.NotEqual(t, first.ID, other.ID)
}

// --- Metrics ---.

func TestComputeProjectMetrics(t *testing.T) {
	t.Parallel()

	r := sampleReport()

	assert.Equal(t, 2, r.Project.Metrics.TotalIssues)
	assert.Equal(t, 1, r.Project.Metrics.IssuesByTool["sonarqube"])
	assert.Equal(t, 1, r.Project.Metrics.BySeverity["critical"])
}

// --- Writers ---.

func TestWriteJSONStable(t *testing.T) {
	t.Parallel()

	r := sampleReport()

	var first, second bytes.Buffer

	require.NoError(t, WriteJSON(&first, r))
	require.NoError(t, WriteJSON(&second, r))

	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), `"duplicateGroups"`)
}

func TestWriteFileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name string
		file string
	}{
		{name: "json", file: "report.json"},
		{name: "yaml", file: "report.yaml"},
		{name: "lz4 compressed", file: "report.json.lz4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, tt.file)
			written := sampleReport()

			require.NoError(t, WriteFile(path, written))

			loaded, err := ReadFile(path)
			require.NoError(t, err)

			assert.Equal(t, written.Source, loaded.Source)
			require.Len(t, loaded.Issues, 2)
			assert.Equal(t, written.Issues[0].ID, loaded.Issues[0].ID)
		})
	}
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatJSON, FormatForPath("out/report.json"))
	assert.Equal(t, FormatYAML, FormatForPath("out/report.yml"))
	assert.Equal(t, FormatYAML, FormatForPath("out/report.yaml.lz4"))
	assert.Equal(t, FormatJSON, FormatForPath("out/report"))
}
