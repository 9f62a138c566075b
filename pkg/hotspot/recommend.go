package hotspot

import (
	"fmt"

	"github.com/crosslint-tech/crosslint/pkg/finding"
)

// Recommendation rule thresholds.
const (
	longFunctionLines    = 100
	highDensityPerLine   = 0.5
	multiToolMinimum     = 3
	securityShareMinimum = 0.5
)

// recommend generates remediation guidance for a cluster from fixed rules.
// Rules fire independently; a cluster may collect several recommendations.
func recommend(cluster *Cluster) []string {
	var recs []string

	switch cluster.Risk {
	case RiskCritical:
		recs = append(recs, fmt.Sprintf(
			"Refactor %s immediately: %d issues concentrated in %d lines",
			cluster.Span.Name, len(cluster.Issues), cluster.Span.Lines()))
	case RiskHigh:
		recs = append(recs, fmt.Sprintf(
			"Schedule refactoring for %s: issue concentration is high", cluster.Span.Name))
	case RiskMedium, RiskLow:
		// No risk-driven recommendation below high.
	}

	tools := make(map[string]struct{})

	var securityCount int

	for _, issue := range cluster.Issues {
		tools[issue.ToolName] = struct{}{}

		if issue.AnalysisType == finding.TypeSecurity {
			securityCount++
		}
	}

	if len(tools) >= multiToolMinimum {
		recs = append(recs, fmt.Sprintf(
			"%d independent tools flag this function; prioritize manual review", len(tools)))
	}

	if float64(securityCount) >= securityShareMinimum*float64(len(cluster.Issues)) && securityCount > 0 {
		recs = append(recs, "Security review required: security findings dominate this function")
	}

	if cluster.Span.Lines() > longFunctionLines && cluster.Span.Name != "file-scope" {
		recs = append(recs, fmt.Sprintf(
			"Function spans %d lines; consider splitting into smaller units", cluster.Span.Lines()))
	}

	density := float64(len(cluster.Issues)) / float64(cluster.Span.Lines())
	if density > highDensityPerLine {
		recs = append(recs, "Issue density exceeds one finding per two lines; rewrite rather than patch")
	}

	return recs
}
