package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslint-tech/crosslint/pkg/config"
	"github.com/crosslint-tech/crosslint/pkg/dedup"
	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/funcspan"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
	"github.com/crosslint-tech/crosslint/pkg/report"
	"github.com/crosslint-tech/crosslint/pkg/temporal"
)

// stubSpans returns fixed function boundaries per canonical path.
type stubSpans struct {
	byFile map[string][]funcspan.Span
}

func (s *stubSpans) Functions(_ context.Context, canonicalPath string, _ []byte) ([]funcspan.Span, error) {
	return s.byFile[canonicalPath], nil
}

// stubHistory serves canned commits without touching a real repository.
type stubHistory struct {
	commits []gitlog.Commit
	err     error
}

func (s *stubHistory) History(_ context.Context, _ string) ([]gitlog.Commit, error) {
	return s.commits, s.err
}

func (s *stubHistory) FileAt(_ context.Context, _, _, _ string) ([]byte, error) {
	return nil, gitlog.ErrFileNotFound
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crosslint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	return cfg
}

// writeProject lays out a small JS project plus a generic report file
// with two findings on the same line from different tools.
func writeProject(t *testing.T) (root, reportPath string) {
	t.Helper()

	root = t.TempDir()

	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	app := "import util from './util';\n\nfunction handler() {\n  eval(input);\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.js"), []byte(app), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "util.js"), []byte("export const x = 1;\n"), 0o600))

	records := []map[string]any{
		{
			"toolName":    "sonarqube",
			"ruleId":      "javascript:S1523",
			"path":        "src/app.js",
			"line":        4,
			"severity":    "high",
			"type":        "security",
			"description": "Dynamic execution of code is detected.",
			"metadata":    map[string]any{"cwe": "CWE-95"},
		},
		{
			"toolName":    "semgrep",
			"ruleId":      "javascript.lang.security.audit.eval-detected",
			"path":        "src/app.js",
			"line":        4,
			"severity":    "high",
			"type":        "security",
			"description": "Dynamic execution of code detected.",
			"metadata":    map[string]any{"cwe": "CWE-95"},
		},
	}

	payload, err := json.Marshal(records)
	require.NoError(t, err)

	reportPath = filepath.Join(root, "issues.json")
	require.NoError(t, os.WriteFile(reportPath, payload, 0o600))

	return root, reportPath
}

func testPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()

	base := []Option{
		WithVersion("test"),
		WithClock(func() time.Time {
			return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		}),
		WithSpanProvider(&stubSpans{byFile: map[string][]funcspan.Span{
			"src/app.js": {{Name: "handler", FilePath: "src/app.js", StartLine: 3, EndLine: 5}},
		}}),
	}

	p, err := New(testConfig(t), append(base, opts...)...)
	require.NoError(t, err)

	return p
}

func TestRunFullProject(t *testing.T) {
	t.Parallel()

	root, reportPath := writeProject(t)
	p := testPipeline(t)

	rep, err := p.Run(context.Background(), Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
		Reports:     []ToolReport{{Tool: "generic", Path: reportPath}},
	})
	require.NoError(t, err)

	assert.Empty(t, rep.Errors)

	// Both findings normalized to the same entity.
	require.Len(t, rep.Issues, 1, "near-identical findings collapse to one enhanced issue")
	assert.Equal(t, "src/app.js", rep.Issues[0].Path())
	require.Len(t, rep.DuplicateGroups, 1)
	assert.Len(t, rep.DuplicateGroups[0].Duplicates, 1)

	// The issue lands in the handler span.
	require.NotEmpty(t, rep.FunctionClusters)
	assert.Equal(t, "handler", rep.FunctionClusters[0].Span.Name)

	// Two JS files, one internal edge.
	require.NotNil(t, rep.ModuleGraph)
	assert.Len(t, rep.ModuleGraph.Modules, 2)
	assert.Len(t, rep.ModuleGraph.Dependencies, 1)

	// No repo path, so no temporal section and no temporal error.
	assert.Nil(t, rep.Temporal)

	metrics := rep.Project.Metrics
	assert.Equal(t, 1, metrics.TotalIssues)
	assert.Equal(t, 1, metrics.DuplicateGroups)
	assert.Equal(t, 2, metrics.Normalization.Total)
	assert.Equal(t, 2, metrics.Normalization.Successful)

	require.NoError(t, report.Validate(rep))
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	root, reportPath := writeProject(t)
	input := Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
		Reports:     []ToolReport{{Tool: "generic", Path: reportPath}},
	}

	first, err := testPipeline(t).Run(context.Background(), input)
	require.NoError(t, err)

	second, err := testPipeline(t).Run(context.Background(), input)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestRunUnknownToolRecordsError(t *testing.T) {
	t.Parallel()

	root, reportPath := writeProject(t)
	p := testPipeline(t)

	rep, err := p.Run(context.Background(), Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
		Reports: []ToolReport{
			{Tool: "generic", Path: reportPath},
			{Tool: "mystery-scanner", Path: reportPath},
		},
	})
	require.NoError(t, err)

	// The known tool's findings still flow through.
	assert.NotEmpty(t, rep.Issues)

	require.Len(t, rep.Errors, 1)
	assert.Equal(t, report.ErrAdapterUnavailable, rep.Errors[0].Kind)
	assert.Equal(t, StageIngest, rep.Errors[0].Stage)
	assert.Equal(t, "mystery-scanner", rep.Errors[0].Subject)
}

func TestRunMalformedReportRecordsParseError(t *testing.T) {
	t.Parallel()

	root, _ := writeProject(t)

	badPath := filepath.Join(root, "broken.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0o600))

	rep, err := testPipeline(t).Run(context.Background(), Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
		Reports:     []ToolReport{{Tool: "generic", Path: badPath}},
	})
	require.NoError(t, err)

	assert.Empty(t, rep.Issues)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, report.ErrParse, rep.Errors[0].Kind)
}

// failingClusterer trips the dedup stage's invariant-violation path.
type failingClusterer struct{}

func (failingClusterer) Cluster([]*finding.Issue) (*dedup.Result, error) {
	return nil, dedup.ErrPrimaryInDuplicates
}

func TestRunAbortsOnFatalDedupError(t *testing.T) {
	t.Parallel()

	root, reportPath := writeProject(t)
	p := testPipeline(t)
	p.clusterer = failingClusterer{}

	rep, err := p.Run(context.Background(), Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
		Reports:     []ToolReport{{Tool: "generic", Path: reportPath}},
	})
	require.ErrorIs(t, err, dedup.ErrPrimaryInDuplicates)

	// The partial report comes back carrying the fatal record.
	require.NotNil(t, rep)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, report.ErrFatal, rep.Errors[0].Kind)
	assert.Equal(t, StageDedup, rep.Errors[0].Stage)

	// No stage after dedup runs.
	assert.Empty(t, rep.FunctionClusters)
	assert.Nil(t, rep.ModuleGraph)
	assert.Nil(t, rep.Temporal)
}

func TestRunEmptyIssueSet(t *testing.T) {
	t.Parallel()

	root, _ := writeProject(t)

	rep, err := testPipeline(t).Run(context.Background(), Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
	})
	require.NoError(t, err)

	assert.Empty(t, rep.Issues)
	assert.Empty(t, rep.DuplicateGroups)
	assert.Empty(t, rep.FunctionClusters)
	assert.Empty(t, rep.Errors)

	// Structural analysis does not depend on findings.
	require.NotNil(t, rep.ModuleGraph)
	assert.Len(t, rep.ModuleGraph.Modules, 2)
}

func TestRunTemporalWithStubHistory(t *testing.T) {
	t.Parallel()

	root, reportPath := writeProject(t)

	epoch := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	history := &stubHistory{commits: []gitlog.Commit{
		{
			Hash:    "aaaaaaaa",
			Author:  "dev",
			Date:    epoch,
			Message: "add handler",
			Files:   []gitlog.FileChange{{Path: "src/app.js", LinesAdded: 10}},
		},
		{
			Hash:    "bbbbbbbb",
			Author:  "dev",
			Date:    epoch.AddDate(0, 0, 2),
			Message: "fix eval handling",
			Files:   []gitlog.FileChange{{Path: "src/app.js", LinesAdded: 2, LinesDeleted: 1}},
		},
	}}

	p := testPipeline(t, WithHistoryReader(history))

	rep, err := p.Run(context.Background(), Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
		RepoPath:    root,
		Reports:     []ToolReport{{Tool: "generic", Path: reportPath}},
		Window:      temporal.Window{},
	})
	require.NoError(t, err)

	require.NotNil(t, rep.Temporal)
	assert.Len(t, rep.Temporal.Commits, 2)
	require.Len(t, rep.Temporal.FileHistory, 1)
	assert.Equal(t, "src/app.js", rep.Temporal.FileHistory[0].FilePath)
}

func TestRunTemporalHistoryFailure(t *testing.T) {
	t.Parallel()

	root, reportPath := writeProject(t)
	p := testPipeline(t, WithHistoryReader(&stubHistory{err: gitlog.ErrNotRepository}))

	rep, err := p.Run(context.Background(), Input{
		ProjectKey:  "shop",
		ProjectRoot: root,
		RepoPath:    root,
		Reports:     []ToolReport{{Tool: "generic", Path: reportPath}},
	})
	require.NoError(t, err)

	// The rest of the report survives the failed stage.
	assert.Nil(t, rep.Temporal)
	assert.NotEmpty(t, rep.Issues)

	require.Len(t, rep.Errors, 1)
	assert.Equal(t, report.ErrConfiguration, rep.Errors[0].Kind)
	assert.Equal(t, StageTemporal, rep.Errors[0].Stage)
}

func TestRunRequiresProjectRoot(t *testing.T) {
	t.Parallel()

	_, err := testPipeline(t).Run(context.Background(), Input{ProjectKey: "shop"})
	require.Error(t, err)
}
