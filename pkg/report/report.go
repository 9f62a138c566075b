// Package report assembles the unified analysis report, its error
// taxonomy, schema validation, and output writers.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosslint-tech/crosslint/pkg/archcheck"
	"github.com/crosslint-tech/crosslint/pkg/dedup"
	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/hotspot"
	"github.com/crosslint-tech/crosslint/pkg/modgraph"
	"github.com/crosslint-tech/crosslint/pkg/pathnorm"
	"github.com/crosslint-tech/crosslint/pkg/temporal"
)

// Source identifies reports produced by this tool.
const Source = "crosslint"

// ErrorKind classifies a recorded pipeline error.
type ErrorKind string

// Error kinds, per the recovery taxonomy.
const (
	ErrConfiguration      ErrorKind = "configuration"
	ErrAdapterUnavailable ErrorKind = "adapter_unavailable"
	ErrParse              ErrorKind = "parse"
	ErrTimeout            ErrorKind = "timeout"
	ErrNormalization      ErrorKind = "normalization"
	ErrFatal              ErrorKind = "fatal"
)

// errorNamespace seeds deterministic error-record identifiers.
var errorNamespace = uuid.MustParse("4a8c1f52-9e37-5b04-ae61-c2d90f73b8e5")

// ErrorRecord is one recovered (or fatal) pipeline error.
type ErrorRecord struct {
	ID      string    `json:"id"      yaml:"id"`
	Kind    ErrorKind `json:"kind"    yaml:"kind"`
	Stage   string    `json:"stage"   yaml:"stage"`
	Subject string    `json:"subject" yaml:"subject"`
	Message string    `json:"message" yaml:"message"`
}

// NewErrorRecord builds a record with a stable identifier.
func NewErrorRecord(kind ErrorKind, stage, subject, message string) ErrorRecord {
	key := string(kind) + "|" + stage + "|" + subject

	return ErrorRecord{
		ID:      uuid.NewSHA1(errorNamespace, []byte(key)).String(),
		Kind:    kind,
		Stage:   stage,
		Subject: subject,
		Message: message,
	}
}

// ProjectMetrics summarizes ingestion-level numbers for the project.
type ProjectMetrics struct {
	TotalIssues     int                 `json:"totalIssues"     yaml:"total_issues"`
	IssuesByTool    map[string]int      `json:"issuesByTool"    yaml:"issues_by_tool"`
	BySeverity      map[string]int      `json:"bySeverity"      yaml:"by_severity"`
	DuplicateGroups int                 `json:"duplicateGroups" yaml:"duplicate_groups"`
	Normalization   pathnorm.BatchStats `json:"normalization"   yaml:"normalization"`
}

// ProjectInfo identifies the analyzed project.
type ProjectInfo struct {
	Key     string         `json:"key"     yaml:"key"`
	Path    string         `json:"path"    yaml:"path"`
	Metrics ProjectMetrics `json:"metrics" yaml:"metrics"`
}

// ModuleGraph is the dependency-graph section of the report.
type ModuleGraph struct {
	Modules      []*modgraph.Module `json:"modules"      yaml:"modules"`
	Dependencies []modgraph.Edge    `json:"dependencies" yaml:"dependencies"`
	Metrics      archcheck.Metrics  `json:"metrics"      yaml:"metrics"`
}

// Report is the unified analysis output. Field names are part of the
// external contract and stay stable across versions.
type Report struct {
	Source        string      `json:"source"        yaml:"source"`
	SourceVersion string      `json:"sourceVersion" yaml:"source_version"`
	AnalyzedAt    time.Time   `json:"analyzedAt"    yaml:"analyzed_at"`
	Project       ProjectInfo `json:"project"       yaml:"project"`

	Issues              []*finding.Issue              `json:"issues"              yaml:"issues"`
	DuplicateGroups     []*dedup.Group                `json:"duplicateGroups"     yaml:"duplicate_groups"`
	FunctionClusters    []*hotspot.Cluster            `json:"functionClusters"    yaml:"function_clusters"`
	CrossFunctionGroups []*hotspot.CrossFunctionGroup `json:"crossFunctionGroups" yaml:"cross_function_groups"`
	ProximityGroups     []*hotspot.ProximityGroup     `json:"proximityGroups"     yaml:"proximity_groups"`

	ModuleGraph             *ModuleGraph          `json:"moduleGraph"             yaml:"module_graph"`
	ArchitecturalViolations []archcheck.Violation `json:"architecturalViolations" yaml:"architectural_violations"`
	DependencyClusters      []archcheck.Cluster   `json:"dependencyClusters"      yaml:"dependency_clusters"`

	Temporal *temporal.Result `json:"temporal" yaml:"temporal"`

	Errors []ErrorRecord `json:"errors" yaml:"errors"`
}

// New returns a report shell with identity fields filled.
func New(version, projectKey, projectPath string, analyzedAt time.Time) *Report {
	return &Report{
		Source:        Source,
		SourceVersion: version,
		AnalyzedAt:    analyzedAt,
		Project:       ProjectInfo{Key: projectKey, Path: projectPath},
	}
}

// AddError appends a recovered error record.
func (r *Report) AddError(kind ErrorKind, stage, subject, message string) {
	r.Errors = append(r.Errors, NewErrorRecord(kind, stage, subject, message))
}

// ComputeProjectMetrics fills the project metrics block from the
// report's own sections.
func (r *Report) ComputeProjectMetrics() {
	metrics := ProjectMetrics{
		TotalIssues:     len(r.Issues),
		IssuesByTool:    make(map[string]int),
		BySeverity:      make(map[string]int),
		DuplicateGroups: len(r.DuplicateGroups),
		Normalization:   r.Project.Metrics.Normalization,
	}

	for _, issue := range r.Issues {
		metrics.IssuesByTool[issue.ToolName]++
		metrics.BySeverity[string(issue.Severity)]++
	}

	r.Project.Metrics = metrics
}
