package similarity

import "strings"

// DefaultReliability is the trust weight for tools without an entry in the
// reliability table.
const DefaultReliability = 0.5

// defaultReliabilityTable holds the hand-tuned per-tool trust weights.
// These are domain inputs, not first-principles values; overrides come
// from configuration.
var defaultReliabilityTable = map[string]float64{
	"sonarqube":   0.9,
	"codeql":      0.9,
	"veracode":    0.88,
	"checkmarx":   0.87,
	"semgrep":     0.85,
	"snyk":        0.85,
	"deepsource":  0.82,
	"codeclimate": 0.8,
	"codacy":      0.75,
}

// ReliabilityTable maps tool names to trust weights in [0,1]. The weight
// feeds both similarity scoring and dedup primary selection.
type ReliabilityTable map[string]float64

// DefaultReliabilityTable returns a copy of the built-in table.
func DefaultReliabilityTable() ReliabilityTable {
	table := make(ReliabilityTable, len(defaultReliabilityTable))
	for tool, weight := range defaultReliabilityTable {
		table[tool] = weight
	}

	return table
}

// Reliability returns the trust weight for the given tool.
// Enhanced tool names of the form "sonarqube+2" resolve to the base tool.
func (t ReliabilityTable) Reliability(toolName string) float64 {
	name := strings.ToLower(toolName)
	if idx := strings.Index(name, "+"); idx >= 0 {
		name = name[:idx]
	}

	if weight, ok := t[name]; ok {
		return weight
	}

	return DefaultReliability
}
