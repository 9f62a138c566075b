package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ToolSonarQube is the canonical SonarQube tool name.
const ToolSonarQube = "sonarqube"

// sonarSeverities maps SonarQube's scale onto the canonical one.
var sonarSeverities = map[string]string{
	"BLOCKER":  "critical",
	"CRITICAL": "critical",
	"MAJOR":    "high",
	"MINOR":    "medium",
	"INFO":     "info",
}

// sonarTypes maps SonarQube issue types onto analysis types.
var sonarTypes = map[string]string{
	"VULNERABILITY":    "security",
	"SECURITY_HOTSPOT": "security",
	"BUG":              "quality",
	"CODE_SMELL":       "quality",
}

// SonarQubeAdapter parses SonarQube issue-search exports. Component keys
// keep their "project:path" form; the normalizer splits them.
type SonarQubeAdapter struct{}

// Name implements ToolAdapter.
func (a *SonarQubeAdapter) Name() string { return ToolSonarQube }

type sonarReport struct {
	Issues []sonarIssue `json:"issues"`
}

type sonarIssue struct {
	Key       string         `json:"key"`
	Rule      string         `json:"rule"`
	Severity  string         `json:"severity"`
	Component string         `json:"component"`
	Line      int            `json:"line"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	TextRange *sonarRange    `json:"textRange"`
	Tags      []string       `json:"tags"`
	Extra     map[string]any `json:"extra"`
}

type sonarRange struct {
	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine"`
	StartOffset int `json:"startOffset"`
}

// Parse implements ToolAdapter.
func (a *SonarQubeAdapter) Parse(_ context.Context, r io.Reader) ([]RawIssue, error) {
	var report sonarReport

	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode sonarqube report: %w", err)
	}

	issues := make([]RawIssue, 0, len(report.Issues))

	for _, item := range report.Issues {
		raw := RawIssue{
			ToolName:    ToolSonarQube,
			RuleID:      item.Rule,
			Path:        item.Component,
			Line:        item.Line,
			Severity:    sonarSeverities[strings.ToUpper(item.Severity)],
			Type:        sonarTypes[strings.ToUpper(item.Type)],
			Description: item.Message,
			Metadata:    map[string]any{"key": item.Key},
		}

		if item.TextRange != nil {
			raw.Line = item.TextRange.StartLine
			raw.EndLine = item.TextRange.EndLine
			raw.Column = item.TextRange.StartOffset
		}

		if len(item.Tags) > 0 {
			raw.Metadata["tags"] = item.Tags

			for _, tag := range item.Tags {
				if strings.HasPrefix(tag, "cwe") {
					raw.Metadata["cwe"] = strings.ToUpper(tag)
				}
			}
		}

		issues = append(issues, raw)
	}

	return issues, nil
}
