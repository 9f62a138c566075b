// Package finding defines the canonical issue model shared by all pipeline
// stages. Tool adapters produce raw records; ingestion converts them into
// typed Issues bound to canonical entities.
package finding

// Issue is one normalized finding from a static-analysis tool.
// Enrichment steps never overwrite original fields; they add to Metadata.
type Issue struct {
	ID           string           `json:"id"                  yaml:"id"`
	ToolName     string           `json:"toolName"            yaml:"tool_name"`
	RuleID       string           `json:"ruleId"              yaml:"rule_id"`
	Title        string           `json:"title,omitempty"     yaml:"title,omitempty"`
	Description  string           `json:"description"         yaml:"description"`
	Severity     Severity         `json:"severity"            yaml:"severity"`
	AnalysisType AnalysisType     `json:"analysisType"        yaml:"analysis_type"`
	Entity       *CanonicalEntity `json:"entity"              yaml:"entity"`
	Line         int              `json:"line,omitempty"      yaml:"line,omitempty"`
	Column       int              `json:"column,omitempty"    yaml:"column,omitempty"`
	EndLine      int              `json:"endLine,omitempty"   yaml:"end_line,omitempty"`
	EndColumn    int              `json:"endColumn,omitempty" yaml:"end_column,omitempty"`
	Metadata     map[string]any   `json:"metadata,omitempty"  yaml:"metadata,omitempty"`
}

// Path returns the canonical path of the issue, or "" when normalization
// failed and the issue carries no entity.
func (i *Issue) Path() string {
	if i.Entity == nil {
		return ""
	}

	return i.Entity.CanonicalPath
}

// HasLine reports whether the issue carries line information.
// Line numbers are 1-based; 0 means absent.
func (i *Issue) HasLine() bool {
	return i.Line > 0
}

// Clone returns a shallow copy of the issue with its own metadata map.
func (i *Issue) Clone() *Issue {
	dup := *i

	if i.Metadata != nil {
		dup.Metadata = make(map[string]any, len(i.Metadata))
		for k, v := range i.Metadata {
			dup.Metadata[k] = v
		}
	}

	return &dup
}
