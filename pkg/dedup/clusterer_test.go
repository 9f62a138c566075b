package dedup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/similarity"
)

func newTestClusterer() *Clusterer {
	return NewClusterer(similarity.NewScorer(nil), similarity.DefaultThresholds())
}

func dupIssue(id, tool string, severity finding.Severity) *finding.Issue {
	return &finding.Issue{
		ID:          id,
		ToolName:    tool,
		RuleID:      "javascript:S2703",
		Description: "Variable leaks to global scope.",
		Severity:    severity,
		Entity:      &finding.CanonicalEntity{CanonicalPath: "src/app.js"},
		Line:        10,
	}
}

func uniqueIssue(id, path string, line int) *finding.Issue {
	return &finding.Issue{
		ID:          id,
		ToolName:    "semgrep",
		RuleID:      "python.lang.todo",
		Description: "unrelated finding",
		Severity:    finding.SeverityLow,
		Entity:      &finding.CanonicalEntity{CanonicalPath: path},
		Line:        line,
	}
}

func TestClusterFormsGroupAndUnique(t *testing.T) {
	t.Parallel()

	issues := []*finding.Issue{
		dupIssue("a", "sonarqube", finding.SeverityHigh),
		dupIssue("b", "semgrep", finding.SeverityHigh),
		uniqueIssue("c", "lib/other.py", 3),
	}

	result, err := newTestClusterer().Cluster(issues)
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	require.Len(t, result.Unique, 1)
	require.Len(t, result.Enhanced, 2)

	group := result.Groups[0]

	// SonarQube outranks semgrep on reliability.
	assert.Equal(t, "a", group.Primary.ID)
	require.Len(t, group.Duplicates, 1)
	assert.Equal(t, "b", group.Duplicates[0].ID)
	assert.Equal(t, finding.SeverityHigh, group.Consensus)
	assert.NotEmpty(t, group.ID)
}

func TestClusterPrimaryNeverInDuplicates(t *testing.T) {
	t.Parallel()

	issues := []*finding.Issue{
		dupIssue("a", "sonarqube", finding.SeverityHigh),
		dupIssue("b", "semgrep", finding.SeverityHigh),
		dupIssue("c", "snyk", finding.SeverityMedium),
	}

	result, err := newTestClusterer().Cluster(issues)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	group := result.Groups[0]
	for _, dup := range group.Duplicates {
		assert.NotEqual(t, group.Primary.ID, dup.ID)
	}

	// Reliability of the primary dominates every duplicate.
	scorer := similarity.NewScorer(nil)
	for _, dup := range group.Duplicates {
		assert.GreaterOrEqual(t,
			scorer.Reliability(group.Primary.ToolName),
			scorer.Reliability(dup.ToolName))
	}
}

func TestClusterDeterministicUnderPermutation(t *testing.T) {
	t.Parallel()

	issues := []*finding.Issue{
		dupIssue("a", "sonarqube", finding.SeverityHigh),
		dupIssue("b", "semgrep", finding.SeverityHigh),
		dupIssue("c", "snyk", finding.SeverityMedium),
		uniqueIssue("d", "lib/other.py", 3),
		uniqueIssue("e", "lib/another.py", 9),
	}

	baseline, err := newTestClusterer().Cluster(issues)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))

	for range 10 {
		shuffled := make([]*finding.Issue, len(issues))
		copy(shuffled, issues)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		result, clusterErr := newTestClusterer().Cluster(shuffled)
		require.NoError(t, clusterErr)

		require.Len(t, result.Groups, len(baseline.Groups))

		for i, group := range result.Groups {
			assert.Equal(t, baseline.Groups[i].Primary.ID, group.Primary.ID)
			assert.Equal(t, baseline.Groups[i].ID, group.ID)

			require.Len(t, group.Duplicates, len(baseline.Groups[i].Duplicates))
			for j, dup := range group.Duplicates {
				assert.Equal(t, baseline.Groups[i].Duplicates[j].ID, dup.ID)
			}
		}

		for i, issue := range result.Enhanced {
			assert.Equal(t, baseline.Enhanced[i].ID, issue.ID)
		}
	}
}

func TestConsensusSeverityIsRoundedMean(t *testing.T) {
	t.Parallel()

	issues := []*finding.Issue{
		dupIssue("a", "sonarqube", finding.SeverityCritical), // 5
		dupIssue("b", "semgrep", finding.SeverityMedium),     // 3
		dupIssue("c", "snyk", finding.SeverityMedium),        // 3
	}

	result, err := newTestClusterer().Cluster(issues)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	// mean = 11/3 ≈ 3.67, rounds to 4 = high.
	assert.Equal(t, finding.SeverityHigh, result.Groups[0].Consensus)
}

func TestEnhancedPrimaryCarriesGroupMetadata(t *testing.T) {
	t.Parallel()

	issues := []*finding.Issue{
		dupIssue("a", "sonarqube", finding.SeverityHigh),
		dupIssue("b", "semgrep", finding.SeverityHigh),
	}

	result, err := newTestClusterer().Cluster(issues)
	require.NoError(t, err)
	require.Len(t, result.Enhanced, 1)

	enhanced := result.Enhanced[0]
	assert.Equal(t, "sonarqube+1", enhanced.ToolName)
	assert.Equal(t, result.Groups[0].ID, enhanced.Metadata["duplicateGroupId"])

	// The original primary is untouched by enhancement.
	assert.Equal(t, "sonarqube", issues[0].ToolName)
	assert.NotContains(t, issues[0].Metadata, "duplicateGroupId")
}

func TestClusterCrossRuleNeighborsStayUnique(t *testing.T) {
	t.Parallel()

	a := &finding.Issue{
		ID:          "a",
		ToolName:    "sonarqube",
		RuleID:      "javascript:S2703",
		Description: "Variable is not initialized",
		Severity:    finding.SeverityCritical,
		Entity:      &finding.CanonicalEntity{CanonicalPath: "src/app.js"},
		Line:        42,
	}
	b := &finding.Issue{
		ID:          "b",
		ToolName:    "semgrep",
		RuleID:      "javascript.uninit",
		Description: "Variable not initialized before use",
		Severity:    finding.SeverityHigh,
		Entity:      &finding.CanonicalEntity{CanonicalPath: "src/app.js"},
		Line:        43,
	}

	result, err := newTestClusterer().Cluster([]*finding.Issue{a, b})
	require.NoError(t, err)

	// Adjacent lines but unrelated rules and paraphrased messages score
	// 0.7675, below the 0.85 near-match cut-off: no group forms and both
	// issues pass through unchanged.
	assert.Empty(t, result.Groups)
	require.Len(t, result.Unique, 2)
	require.Len(t, result.Enhanced, 2)
	assert.Equal(t, "sonarqube", result.Enhanced[0].ToolName)
}

func TestClusterSkipsIssuesWithoutEntity(t *testing.T) {
	t.Parallel()

	orphan := dupIssue("z", "semgrep", finding.SeverityHigh)
	orphan.Entity = nil

	result, err := newTestClusterer().Cluster([]*finding.Issue{
		orphan,
		dupIssue("a", "sonarqube", finding.SeverityHigh),
	})
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	require.Len(t, result.Unique, 1)
	assert.Equal(t, "a", result.Unique[0].ID)
}
