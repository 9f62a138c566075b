package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ToolSemgrep is the canonical Semgrep tool name.
const ToolSemgrep = "semgrep"

// semgrepSeverities maps Semgrep's scale onto the canonical one.
var semgrepSeverities = map[string]string{
	"ERROR":   "high",
	"WARNING": "medium",
	"INFO":    "info",
}

// SemgrepAdapter parses `semgrep --json` output.
type SemgrepAdapter struct{}

// Name implements ToolAdapter.
func (a *SemgrepAdapter) Name() string { return ToolSemgrep }

type semgrepReport struct {
	Results []semgrepResult `json:"results"`
}

type semgrepResult struct {
	CheckID string          `json:"check_id"`
	Path    string          `json:"path"`
	Start   semgrepPosition `json:"start"`
	End     semgrepPosition `json:"end"`
	Extra   semgrepExtra    `json:"extra"`
}

type semgrepPosition struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

type semgrepExtra struct {
	Message  string         `json:"message"`
	Severity string         `json:"severity"`
	Metadata map[string]any `json:"metadata"`
}

// Parse implements ToolAdapter.
func (a *SemgrepAdapter) Parse(_ context.Context, r io.Reader) ([]RawIssue, error) {
	var report semgrepReport

	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode semgrep report: %w", err)
	}

	issues := make([]RawIssue, 0, len(report.Results))

	for _, result := range report.Results {
		raw := RawIssue{
			ToolName:    ToolSemgrep,
			RuleID:      result.CheckID,
			Path:        result.Path,
			Line:        result.Start.Line,
			Column:      result.Start.Col,
			EndLine:     result.End.Line,
			Severity:    semgrepSeverities[strings.ToUpper(result.Extra.Severity)],
			Description: result.Extra.Message,
			Metadata:    result.Extra.Metadata,
		}

		if raw.Metadata != nil {
			if category, ok := raw.Metadata["category"].(string); ok {
				raw.Type = category
			}

			raw.Type = normalizeSemgrepType(raw.Type)

			if cwe := cweFromMetadata(raw.Metadata); cwe != "" {
				raw.Metadata["cwe"] = cwe
			}
		}

		issues = append(issues, raw)
	}

	return issues, nil
}

// normalizeSemgrepType folds semgrep categories onto analysis types.
func normalizeSemgrepType(category string) string {
	switch strings.ToLower(category) {
	case "security":
		return "security"
	case "correctness", "best-practice", "maintainability", "performance":
		return "quality"
	default:
		return category
	}
}

// cweFromMetadata extracts the first CWE reference, which semgrep
// reports as either a string or a list.
func cweFromMetadata(metadata map[string]any) string {
	switch value := metadata["cwe"].(type) {
	case string:
		return cwePrefix(value)
	case []any:
		for _, item := range value {
			if s, ok := item.(string); ok {
				return cwePrefix(s)
			}
		}
	}

	return ""
}

// cwePrefix trims "CWE-79: XSS" style strings down to "CWE-79".
func cwePrefix(value string) string {
	if idx := strings.Index(value, ":"); idx > 0 {
		return strings.TrimSpace(value[:idx])
	}

	return strings.TrimSpace(value)
}
