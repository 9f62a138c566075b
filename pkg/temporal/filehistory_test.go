package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

func TestChangeFrequency(t *testing.T) {
	t.Parallel()

	last := testEpoch
	now := testEpoch.AddDate(0, 0, 10)

	assert.InDelta(t, 0.5, changeFrequency(5, last, now), 1e-9)

	// Same-day last commit uses a one-day floor.
	assert.InDelta(t, 5.0, changeFrequency(5, last, last), 1e-9)
}

func TestIssueHistoryAttribution(t *testing.T) {
	t.Parallel()

	resolver := finding.NewResolver()

	commits := []gitlog.Commit{
		commitAt(0, "alice", "add feature", testFile),
		commitAt(2, "bob", "fix overflow", testFile),
		commitAt(5, "alice", "extend feature", testFile),
	}

	issues := []*finding.Issue{
		testIssue(resolver, "i1", testRule, testFile, finding.SeverityHigh),
		testIssue(resolver, "i2", testRule, testFile, finding.SeverityMedium),
	}

	analyzer := NewAnalyzer()
	entries := analyzer.issueHistory(testFile, commitPtrs(commits), issues)

	require.Len(t, entries, 3)

	// Current issues attach to the newest non-fix commit.
	assert.Zero(t, entries[0].NewIssues)
	assert.Zero(t, entries[1].NewIssues)
	assert.Equal(t, 2, entries[2].NewIssues)
	assert.Equal(t, 2, entries[2].TotalIssues)
	assert.Equal(t, 1, entries[2].BySeverity[string(finding.SeverityHigh)])
}

func TestRegressionRate(t *testing.T) {
	t.Parallel()

	severe := func(count int) IssueHistoryEntry {
		return IssueHistoryEntry{
			BySeverity: map[string]int{string(finding.SeverityCritical): count},
		}
	}

	// Drop then rise counts as one regression over four transitions.
	entries := []IssueHistoryEntry{severe(3), severe(1), severe(4), severe(4), severe(4)}

	assert.InDelta(t, 0.25, regressionRate(entries), 1e-9)

	// Monotonic decline never regresses.
	entries = []IssueHistoryEntry{severe(4), severe(2), severe(1)}

	assert.Zero(t, regressionRate(entries))
}

func TestStabilityMetricsAndRisk(t *testing.T) {
	t.Parallel()

	resolver := finding.NewResolver()

	commits := []gitlog.Commit{
		commitAt(0, "alice", "init", testFile),
		commitAt(1, "bob", "more", testFile),
	}

	issues := map[string][]*finding.Issue{
		testFile: {testIssue(resolver, "i1", testRule, testFile, finding.SeverityHigh)},
	}

	clock := func() time.Time { return testEpoch.AddDate(0, 0, 11) }
	analyzer := NewAnalyzer(WithClock(clock))

	histories := analyzer.fileHistories(context.Background(), commits, issues)

	require.Len(t, histories, 1)
	history := histories[0]

	assert.InDelta(t, 0.2, history.Stability.ChurnRate, 1e-9)
	assert.InDelta(t, 0.5, history.Stability.DefectDensity, 1e-9)
	assert.Equal(t, 2, history.Stability.AuthorChanges)

	want := riskChurnWeight*history.Stability.ChurnRate +
		riskDefectWeight*history.Stability.DefectDensity +
		riskRegressionWeight*history.Stability.RegressionRate

	assert.InDelta(t, want, history.RiskScore, 1e-9)
}
