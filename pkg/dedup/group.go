package dedup

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/similarity"
)

// MergeStrategy describes how a group's evidence is combined downstream.
type MergeStrategy string

// Merge strategies, strongest first.
const (
	MergeMetadata   MergeStrategy = "merge_metadata"
	AggregateScores MergeStrategy = "aggregate_scores"
	KeepPrimary     MergeStrategy = "keep_primary"
)

// Merge-strategy confidence cut-offs.
const (
	mergeMetadataConfidence   = 0.9
	aggregateScoresConfidence = 0.7
)

// groupNamespace seeds deterministic group identifiers so that identical
// inputs yield byte-identical reports.
var groupNamespace = uuid.MustParse("7f1d6bfa-3c84-5ae1-9c2f-5b20c6a9d411")

// Group is one set of issues judged to be duplicates of each other.
type Group struct {
	ID            string             `json:"id"            yaml:"id"`
	Primary       *finding.Issue     `json:"primary"       yaml:"primary"`
	Duplicates    []*finding.Issue   `json:"duplicates"    yaml:"duplicates"`
	Confidence    similarity.Score   `json:"confidence"    yaml:"confidence"`
	MergeStrategy MergeStrategy      `json:"mergeStrategy" yaml:"merge_strategy"`
	Evidence      map[string]any     `json:"evidence"      yaml:"evidence"`
	Consensus     finding.Severity   `json:"consensusSeverity" yaml:"consensus_severity"`
	Scores        []similarity.Score `json:"-"             yaml:"-"`
}

// newGroupID derives a stable identifier from the primary issue id.
func newGroupID(primaryID string) string {
	return uuid.NewSHA1(groupNamespace, []byte(primaryID)).String()
}

// selectMergeStrategy picks the strategy for the group's confidence.
func selectMergeStrategy(confidence similarity.Score) MergeStrategy {
	switch {
	case confidence.Strength == similarity.StrengthDefinitive || confidence.Overall >= mergeMetadataConfidence:
		return MergeMetadata
	case confidence.Overall >= aggregateScoresConfidence:
		return AggregateScores
	default:
		return KeepPrimary
	}
}

// consensusSeverity is the reverse lookup of the rounded mean severity
// rank over all group members.
func consensusSeverity(members []*finding.Issue) finding.Severity {
	if len(members) == 0 {
		return finding.SeverityMedium
	}

	var sum int

	for _, issue := range members {
		sum += issue.Severity.Num()
	}

	mean := float64(sum) / float64(len(members))

	return finding.SeverityFromNum(int(mean + 0.5))
}

// mergeEvidence combines the metadata of all group members, namespaced by
// tool and issue id so nothing is lost on key collisions.
func mergeEvidence(members []*finding.Issue) map[string]any {
	evidence := make(map[string]any, len(members))

	for _, issue := range members {
		if len(issue.Metadata) == 0 {
			continue
		}

		evidence[fmt.Sprintf("%s/%s", issue.ToolName, issue.ID)] = issue.Metadata
	}

	return evidence
}
