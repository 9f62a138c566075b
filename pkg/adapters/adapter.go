// Package adapters ingests raw per-tool issue records and converts them
// to canonical issues. Each adapter parses one tool's report format;
// path strings pass through verbatim for the normalizer.
package adapters

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/crosslint-tech/crosslint/pkg/finding"
)

// ErrUnknownTool marks requests for unregistered adapter names.
var ErrUnknownTool = errors.New("adapters: unknown tool")

// ErrUnavailable marks adapters whose external tool is absent or
// unauthenticated. The pipeline drops that tool's issues and continues.
var ErrUnavailable = errors.New("adapters: tool unavailable")

// RawIssue is the minimal record every adapter emits. Path is in the
// tool's native format.
type RawIssue struct {
	ToolName    string         `json:"toolName"    yaml:"tool_name"`
	RuleID      string         `json:"ruleId"      yaml:"rule_id"`
	Path        string         `json:"path"        yaml:"path"`
	Line        int            `json:"line"        yaml:"line"`
	Column      int            `json:"column"      yaml:"column"`
	EndLine     int            `json:"endLine"     yaml:"end_line"`
	Severity    string         `json:"severity"    yaml:"severity"`
	Type        string         `json:"type"        yaml:"type"`
	Title       string         `json:"title"       yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Metadata    map[string]any `json:"metadata"    yaml:"metadata"`
}

// ToolAdapter parses one tool's report stream into raw issues.
type ToolAdapter interface {
	// Name is the canonical tool name used in reliability lookups.
	Name() string

	// Parse reads a tool report and returns its raw issues.
	Parse(ctx context.Context, r io.Reader) ([]RawIssue, error)
}

// Registry holds the known tool adapters.
type Registry struct {
	byName map[string]ToolAdapter
}

// NewRegistry returns a registry preloaded with the built-in adapters.
func NewRegistry() *Registry {
	registry := &Registry{byName: make(map[string]ToolAdapter)}

	registry.Register(&SonarQubeAdapter{})
	registry.Register(&SemgrepAdapter{})
	registry.Register(&GenericAdapter{})

	return registry
}

// Register adds an adapter, replacing any previous one with the same
// name.
func (r *Registry) Register(adapter ToolAdapter) {
	r.byName[adapter.Name()] = adapter
}

// Get returns the adapter for a tool name.
func (r *Registry) Get(name string) (ToolAdapter, error) {
	adapter, ok := r.byName[name]
	if !ok {
		return nil, ErrUnknownTool
	}

	return adapter, nil
}

// Names lists registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// issueNamespace seeds deterministic issue identifiers.
var issueNamespace = uuid.MustParse("9b61f4e3-2d7a-5c08-8f15-a4e6d23c907b")

// IssueID derives a stable identifier from the raw record's identity
// fields.
func IssueID(raw *RawIssue) string {
	key := raw.ToolName + "|" + raw.RuleID + "|" + raw.Path + "|" + strconv.Itoa(raw.Line)

	return uuid.NewSHA1(issueNamespace, []byte(key)).String()
}

// MetaToolPath is the metadata key carrying the tool-native path until
// normalization resolves the canonical entity.
const MetaToolPath = "toolPath"

// ToIssue converts a raw record into a canonical issue, applying the
// severity and type defaults. The entity stays nil until normalization
// resolves it; the tool-native path is kept under MetaToolPath.
func ToIssue(raw *RawIssue) *finding.Issue {
	issue := &finding.Issue{
		ID:           IssueID(raw),
		ToolName:     raw.ToolName,
		RuleID:       raw.RuleID,
		Title:        raw.Title,
		Description:  raw.Description,
		Severity:     finding.ParseSeverity(raw.Severity),
		AnalysisType: finding.ParseAnalysisType(raw.Type),
		Line:         raw.Line,
		Column:       raw.Column,
		EndLine:      raw.EndLine,
		Metadata:     raw.Metadata,
	}

	if issue.Title == "" {
		issue.Title = raw.Description
	}

	if raw.Path != "" {
		if issue.Metadata == nil {
			issue.Metadata = make(map[string]any, 1)
		}

		issue.Metadata[MetaToolPath] = raw.Path
	}

	return issue
}
