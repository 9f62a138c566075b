package pathnorm

import "sort"

// BatchInput is one path to normalize with its originating tool.
type BatchInput struct {
	ToolPath string
	ToolName string
}

// BatchStats summarizes a batch normalization run.
type BatchStats struct {
	Total             int            `json:"total"             yaml:"total"`
	Successful        int            `json:"successful"        yaml:"successful"`
	Failed            int            `json:"failed"            yaml:"failed"`
	AverageConfidence float64        `json:"averageConfidence" yaml:"average_confidence"`
	SuccessRate       float64        `json:"successRate"       yaml:"success_rate"`
	PerToolCounts     map[string]int `json:"perToolCounts"     yaml:"per_tool_counts"`
}

// NormalizeBatch normalizes all inputs in order and returns the per-input
// results alongside aggregate statistics. Result order matches input order.
func (n *Normalizer) NormalizeBatch(inputs []BatchInput) ([]Result, BatchStats) {
	results := make([]Result, len(inputs))
	stats := BatchStats{
		Total:         len(inputs),
		PerToolCounts: make(map[string]int),
	}

	var confidenceSum float64

	for i, input := range inputs {
		results[i] = n.Normalize(input.ToolPath, input.ToolName)
		stats.PerToolCounts[input.ToolName]++

		if results[i].Normalized {
			stats.Successful++
			confidenceSum += results[i].Confidence
		} else {
			stats.Failed++
		}
	}

	if stats.Successful > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.Successful)
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total)
	}

	return results, stats
}

// Tools returns the tool names seen by the stats, sorted for deterministic
// reporting.
func (s BatchStats) Tools() []string {
	tools := make([]string, 0, len(s.PerToolCounts))
	for tool := range s.PerToolCounts {
		tools = append(tools, tool)
	}

	sort.Strings(tools)

	return tools
}
