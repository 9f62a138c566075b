package finding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverInternsEntities(t *testing.T) {
	t.Parallel()

	resolver := NewResolver()

	a := resolver.Resolve("src/app.js")
	b := resolver.Resolve("src/app.js")
	c := resolver.Resolve("src/util.js")

	// Equal paths yield the same pointer; it is the downstream join key.
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "src/app.js", a.CanonicalPath)
	assert.Equal(t, 2, resolver.Len())
}

func TestIssuePathAndHasLine(t *testing.T) {
	t.Parallel()

	issue := &Issue{Entity: &CanonicalEntity{CanonicalPath: "src/app.js"}, Line: 4}
	assert.Equal(t, "src/app.js", issue.Path())
	assert.True(t, issue.HasLine())

	bare := &Issue{}
	assert.Empty(t, bare.Path())
	assert.False(t, bare.HasLine())
}

func TestIssueCloneCopiesMetadata(t *testing.T) {
	t.Parallel()

	issue := &Issue{ID: "a", Metadata: map[string]any{"cwe": "CWE-89"}}

	dup := issue.Clone()
	dup.Metadata["extra"] = true

	assert.NotContains(t, issue.Metadata, "extra")
	assert.Equal(t, "CWE-89", dup.Metadata["cwe"])

	// A nil metadata map stays nil on the copy.
	assert.Nil(t, (&Issue{ID: "b"}).Clone().Metadata)
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Severity
	}{
		{"BLOCKER", SeverityCritical},
		{"critical", SeverityCritical},
		{"MAJOR", SeverityHigh},
		{"error", SeverityHigh},
		{"warning", SeverityMedium},
		{"minor", SeverityLow},
		{"note", SeverityInfo},
		{" info ", SeverityInfo},
		{"bananas", SeverityMedium},
		{"", SeverityMedium},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.raw), tt.raw)
	}
}

func TestSeverityNumRoundTrip(t *testing.T) {
	t.Parallel()

	for _, severity := range []Severity{
		SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo,
	} {
		assert.Equal(t, severity, SeverityFromNum(severity.Num()), severity)
	}

	// Out-of-range values clamp.
	assert.Equal(t, SeverityCritical, SeverityFromNum(9))
	assert.Equal(t, SeverityInfo, SeverityFromNum(0))
}

func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	require.Greater(t, SeverityCritical.Num(), SeverityHigh.Num())
	require.Greater(t, SeverityHigh.Num(), SeverityMedium.Num())
	require.Greater(t, SeverityMedium.Num(), SeverityLow.Num())
	require.Greater(t, SeverityLow.Num(), SeverityInfo.Num())

	require.Greater(t, SeverityCritical.Weight(), SeverityHigh.Weight())

	// Unknown severities rank as medium on both scales.
	assert.Equal(t, SeverityMedium.Num(), Severity("odd").Num())
	assert.Equal(t, SeverityMedium.Weight(), Severity("odd").Weight())
}

func TestParseAnalysisType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeSecurity, ParseAnalysisType("VULNERABILITY"))
	assert.Equal(t, TypeQuality, ParseAnalysisType("code_smell"))
	assert.Equal(t, TypeBug, ParseAnalysisType("reliability"))
	assert.Equal(t, TypeStyle, ParseAnalysisType("convention"))
	assert.Equal(t, TypePerformance, ParseAnalysisType("perf"))
	assert.Equal(t, TypeOther, ParseAnalysisType("duplication"))

	// Unknown categories default to security for conservative triage.
	assert.Equal(t, TypeSecurity, ParseAnalysisType("mystery"))
}
