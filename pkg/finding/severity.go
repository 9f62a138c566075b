package finding

import "strings"

// Severity is the normalized severity scale shared by every tool adapter.
type Severity string

// Severity levels, highest first.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Numeric severity scale used by consensus and context similarity.
const (
	severityNumCritical = 5
	severityNumHigh     = 4
	severityNumMedium   = 3
	severityNumLow      = 2
	severityNumInfo     = 1
)

// Hotspot score weights per severity level.
const (
	weightCritical = 10
	weightHigh     = 8
	weightMedium   = 5
	weightLow      = 2
	weightInfo     = 1
)

// Num returns the numeric rank of the severity (critical=5 .. info=1).
// Unknown severities rank as medium.
func (s Severity) Num() int {
	switch s {
	case SeverityCritical:
		return severityNumCritical
	case SeverityHigh:
		return severityNumHigh
	case SeverityMedium:
		return severityNumMedium
	case SeverityLow:
		return severityNumLow
	case SeverityInfo:
		return severityNumInfo
	default:
		return severityNumMedium
	}
}

// Weight returns the hotspot score contribution of the severity.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return weightCritical
	case SeverityHigh:
		return weightHigh
	case SeverityMedium:
		return weightMedium
	case SeverityLow:
		return weightLow
	case SeverityInfo:
		return weightInfo
	default:
		return weightMedium
	}
}

// SeverityFromNum is the reverse of [Severity.Num]. Out-of-range values
// clamp to the nearest level.
func SeverityFromNum(n int) Severity {
	switch {
	case n >= severityNumCritical:
		return SeverityCritical
	case n == severityNumHigh:
		return SeverityHigh
	case n == severityNumMedium:
		return SeverityMedium
	case n == severityNumLow:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// ParseSeverity maps a tool-native severity string to the normalized scale.
// Unknown values default to medium.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "blocker":
		return SeverityCritical
	case "high", "major", "error":
		return SeverityHigh
	case "medium", "moderate", "warning":
		return SeverityMedium
	case "low", "minor":
		return SeverityLow
	case "info", "informational", "note", "none":
		return SeverityInfo
	default:
		return SeverityMedium
	}
}

// AnalysisType categorizes what aspect of the code an issue concerns.
type AnalysisType string

// Analysis types.
const (
	TypeSecurity    AnalysisType = "security"
	TypeQuality     AnalysisType = "quality"
	TypeBug         AnalysisType = "bug"
	TypeStyle       AnalysisType = "style"
	TypePerformance AnalysisType = "performance"
	TypeOther       AnalysisType = "other"
)

// ParseAnalysisType maps a tool-native category to the normalized scale.
// Unknown values default to security, the conservative choice for triage.
func ParseAnalysisType(raw string) AnalysisType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "security", "vulnerability", "sast":
		return TypeSecurity
	case "quality", "maintainability", "code_smell", "smell":
		return TypeQuality
	case "bug", "defect", "reliability":
		return TypeBug
	case "style", "convention", "format":
		return TypeStyle
	case "performance", "perf":
		return TypePerformance
	case "other", "coverage", "duplication":
		return TypeOther
	default:
		return TypeSecurity
	}
}
