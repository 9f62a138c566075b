package hotspot

import (
	"math"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/funcspan"
)

// Risk classifies a hotspot score.
type Risk string

// Risk levels.
const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskMedium   Risk = "medium"
	RiskLow      Risk = "low"
)

// Risk thresholds on the hotspot score.
const (
	riskThresholdCritical = 80
	riskThresholdHigh     = 50
	riskThresholdMedium   = 20
)

// Score shaping constants.
const (
	densityMultiplierCap  = 3.0
	densityScale          = 10.0
	toolDiversityStep     = 0.3
)

// computeScore implements the hotspot formula: weighted severity sum times
// a density multiplier times a tool-diversity multiplier, rounded.
func computeScore(span funcspan.Span, issues []*finding.Issue) int {
	if len(issues) == 0 {
		return 0
	}

	var baseScore float64

	tools := make(map[string]struct{})

	for _, issue := range issues {
		baseScore += float64(issue.Severity.Weight())
		tools[issue.ToolName] = struct{}{}
	}

	density := float64(len(issues)) / float64(span.Lines())
	densityMultiplier := math.Min(densityMultiplierCap, 1+densityScale*density)
	toolMultiplier := 1 + toolDiversityStep*float64(len(tools)-1)

	return int(math.Round(baseScore * densityMultiplier * toolMultiplier))
}

// classifyRisk maps a hotspot score to its risk level.
func classifyRisk(score int) Risk {
	switch {
	case score >= riskThresholdCritical:
		return RiskCritical
	case score >= riskThresholdHigh:
		return RiskHigh
	case score >= riskThresholdMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}
