// Package hotspot bins deduplicated issues into function spans and scores
// each bin, surfacing the functions where findings concentrate.
package hotspot

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/funcspan"
)

// crossFunctionConfidence is the fixed confidence for cross-function
// correlation groups; the signal is rule identity, not location.
const crossFunctionConfidence = 0.8

// groupNamespace seeds deterministic identifiers for emitted groups.
var groupNamespace = uuid.MustParse("9b0e5a7c-41d2-5f63-8e94-2d7c31b8f0a5")

// Cluster is one function span with the issues that fall inside it.
type Cluster struct {
	Span            funcspan.Span    `json:"span"            yaml:"span"`
	Issues          []*finding.Issue `json:"issues"          yaml:"issues"`
	HotspotScore    int              `json:"hotspotScore"    yaml:"hotspot_score"`
	Risk            Risk             `json:"risk"            yaml:"risk"`
	Recommendations []string         `json:"recommendations" yaml:"recommendations"`
}

// CrossFunctionGroup collects issues sharing one rule across at least two
// distinct function clusters.
type CrossFunctionGroup struct {
	ID            string           `json:"id"            yaml:"id"`
	RuleID        string           `json:"ruleId"        yaml:"rule_id"`
	FunctionCount int              `json:"functionCount" yaml:"function_count"`
	Issues        []*finding.Issue `json:"issues"        yaml:"issues"`
	Confidence    float64          `json:"confidence"    yaml:"confidence"`
	Message       string           `json:"message"       yaml:"message"`
}

// ProximityGroup collects unclustered issues that sit close together in
// the same file.
type ProximityGroup struct {
	ID        string           `json:"id"        yaml:"id"`
	FilePath  string           `json:"filePath"  yaml:"file_path"`
	StartLine int              `json:"startLine" yaml:"start_line"`
	EndLine   int              `json:"endLine"   yaml:"end_line"`
	Issues    []*finding.Issue `json:"issues"    yaml:"issues"`
}

// Result is the full output of function clustering.
type Result struct {
	Clusters            []*Cluster            `json:"clusters"            yaml:"clusters"`
	CrossFunctionGroups []*CrossFunctionGroup `json:"crossFunctionGroups" yaml:"cross_function_groups"`
	ProximityGroups     []*ProximityGroup     `json:"proximityGroups"     yaml:"proximity_groups"`
}

// Clusterer bins issues into function spans.
type Clusterer struct {
	// FileLineCounts supplies line counts for synthetic file-scope spans;
	// files without an entry fall back to the highest issue line.
	FileLineCounts map[string]int
}

// Cluster bins each issue into the innermost enclosing span for its file.
// Issues with no enclosing span land in a synthetic file-scope span.
func (c *Clusterer) Cluster(issues []*finding.Issue, spansByFile map[string][]funcspan.Span) *Result {
	type binKey struct {
		file  string
		start int
		end   int
		name  string
	}

	bins := make(map[binKey][]*finding.Issue)
	spanByKey := make(map[binKey]funcspan.Span)

	var unclustered []*finding.Issue

	for _, issue := range issues {
		file := issue.Path()
		if file == "" {
			continue
		}

		span, ok := c.findSpan(issue, spansByFile[file])
		if !ok {
			// No enclosing function: the issue still lands in the synthetic
			// file-scope span, and remains eligible for proximity grouping.
			span = c.fileScope(file, issues)

			if issue.HasLine() {
				unclustered = append(unclustered, issue)
			}
		}

		key := binKey{file: span.FilePath, start: span.StartLine, end: span.EndLine, name: span.Name}
		bins[key] = append(bins[key], issue)
		spanByKey[key] = span
	}

	result := &Result{}

	for key, binIssues := range bins {
		span := spanByKey[key]

		sort.Slice(binIssues, func(i, j int) bool { return binIssues[i].ID < binIssues[j].ID })

		cluster := &Cluster{
			Span:         span,
			Issues:       binIssues,
			HotspotScore: computeScore(span, binIssues),
		}
		cluster.Risk = classifyRisk(cluster.HotspotScore)
		cluster.Recommendations = recommend(cluster)

		result.Clusters = append(result.Clusters, cluster)
	}

	sort.Slice(result.Clusters, func(i, j int) bool {
		a, b := result.Clusters[i], result.Clusters[j]
		if a.Span.FilePath != b.Span.FilePath {
			return a.Span.FilePath < b.Span.FilePath
		}

		return a.Span.StartLine < b.Span.StartLine
	})

	result.CrossFunctionGroups = crossFunctionGroups(result.Clusters)
	result.ProximityGroups = proximityGroups(unclustered)

	return result
}

// findSpan returns the innermost span containing the issue's line. Ties on
// containment resolve to the innermost start.
func (c *Clusterer) findSpan(issue *finding.Issue, spans []funcspan.Span) (funcspan.Span, bool) {
	if !issue.HasLine() {
		return funcspan.Span{}, false
	}

	var (
		best  funcspan.Span
		found bool
	)

	for _, span := range spans {
		if !span.Contains(issue.Line) {
			continue
		}

		if !found || span.StartLine > best.StartLine {
			best = span
			found = true
		}
	}

	return best, found
}

// fileScope builds the synthetic whole-file span for issues without lines.
func (c *Clusterer) fileScope(file string, issues []*finding.Issue) funcspan.Span {
	lines := c.FileLineCounts[file]
	if lines == 0 {
		for _, issue := range issues {
			if issue.Path() == file && issue.Line > lines {
				lines = issue.Line
			}
		}
	}

	return funcspan.FileScope(file, lines)
}

// crossFunctionGroups finds rules reported in two or more distinct
// function clusters.
func crossFunctionGroups(clusters []*Cluster) []*CrossFunctionGroup {
	type ruleStats struct {
		issues    []*finding.Issue
		functions map[string]struct{}
	}

	byRule := make(map[string]*ruleStats)

	for _, cluster := range clusters {
		functionKey := cluster.Span.FilePath + "#" + cluster.Span.Name

		for _, issue := range cluster.Issues {
			if issue.RuleID == "" {
				continue
			}

			stats, ok := byRule[issue.RuleID]
			if !ok {
				stats = &ruleStats{functions: make(map[string]struct{})}
				byRule[issue.RuleID] = stats
			}

			stats.issues = append(stats.issues, issue)
			stats.functions[functionKey] = struct{}{}
		}
	}

	ruleIDs := make([]string, 0, len(byRule))
	for ruleID := range byRule {
		ruleIDs = append(ruleIDs, ruleID)
	}

	sort.Strings(ruleIDs)

	var groups []*CrossFunctionGroup

	for _, ruleID := range ruleIDs {
		stats := byRule[ruleID]
		if len(stats.functions) < 2 {
			continue
		}

		sort.Slice(stats.issues, func(i, j int) bool { return stats.issues[i].ID < stats.issues[j].ID })

		groups = append(groups, &CrossFunctionGroup{
			ID:            uuid.NewSHA1(groupNamespace, []byte("xfn:"+ruleID)).String(),
			RuleID:        ruleID,
			FunctionCount: len(stats.functions),
			Issues:        stats.issues,
			Confidence:    crossFunctionConfidence,
			Message: fmt.Sprintf("Rule %s recurs across %d functions; the root cause is likely shared",
				ruleID, len(stats.functions)),
		})
	}

	return groups
}

// proximityGroups collects remaining same-file issues, sorted by line,
// into one group per file when at least two issues remain.
func proximityGroups(unclustered []*finding.Issue) []*ProximityGroup {
	byFile := make(map[string][]*finding.Issue)
	for _, issue := range unclustered {
		byFile[issue.Path()] = append(byFile[issue.Path()], issue)
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}

	sort.Strings(files)

	var groups []*ProximityGroup

	for _, file := range files {
		issues := byFile[file]
		if len(issues) < 2 {
			continue
		}

		sort.Slice(issues, func(i, j int) bool { return issues[i].Line < issues[j].Line })

		groups = append(groups, &ProximityGroup{
			ID:        uuid.NewSHA1(groupNamespace, []byte("prox:"+file)).String(),
			FilePath:  file,
			StartLine: issues[0].Line,
			EndLine:   issues[len(issues)-1].Line,
			Issues:    issues,
		})
	}

	return groups
}
