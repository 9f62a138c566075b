// Package dedup groups issues reported by multiple tools for the same
// underlying problem. Clustering is O(n²) over the issue set, which is
// acceptable at the usual scale of under ten thousand issues per project.
package dedup

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/similarity"
)

// ErrPrimaryInDuplicates signals a violated invariant: the selected
// primary must never appear among its own duplicates.
var ErrPrimaryInDuplicates = errors.New("dedup: primary issue listed in duplicates")

// Result is the output of one clustering run.
type Result struct {
	// Groups are the duplicate groups found, ordered by primary issue id.
	Groups []*Group

	// Unique are issues with no duplicate, in id order.
	Unique []*finding.Issue

	// Enhanced is the deduplicated issue stream: one enhanced primary per
	// group plus all unique issues, in id order.
	Enhanced []*finding.Issue
}

// Clusterer groups similar issues. Construct with NewClusterer.
type Clusterer struct {
	scorer     *similarity.Scorer
	thresholds similarity.Thresholds
}

// NewClusterer creates a clusterer with the given scorer and thresholds.
func NewClusterer(scorer *similarity.Scorer, thresholds similarity.Thresholds) *Clusterer {
	return &Clusterer{scorer: scorer, thresholds: thresholds}
}

// Cluster partitions issues into duplicate groups and unique issues.
// The output depends only on the input set and the factor weights, never
// on input order: issues are scanned in lexicographic id order.
func (c *Clusterer) Cluster(issues []*finding.Issue) (*Result, error) {
	ordered := make([]*finding.Issue, 0, len(issues))

	for _, issue := range issues {
		// Issues without a canonical entity do not participate.
		if issue.Entity != nil {
			ordered = append(ordered, issue)
		}
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	result := &Result{}
	processed := make(map[string]bool, len(ordered))

	for i, pivot := range ordered {
		if processed[pivot.ID] {
			continue
		}

		processed[pivot.ID] = true

		members := []*finding.Issue{pivot}
		scores := []similarity.Score{}

		for _, candidate := range ordered[i+1:] {
			if processed[candidate.ID] {
				continue
			}

			score := c.scorer.Score(pivot, candidate)
			if score.Overall >= c.thresholds.NearMatch {
				members = append(members, candidate)
				scores = append(scores, score)
				processed[candidate.ID] = true
			}
		}

		if len(members) == 1 {
			result.Unique = append(result.Unique, pivot)

			continue
		}

		group, err := c.formGroup(members, scores)
		if err != nil {
			return nil, err
		}

		result.Groups = append(result.Groups, group)
	}

	sort.Slice(result.Groups, func(i, j int) bool {
		return result.Groups[i].Primary.ID < result.Groups[j].Primary.ID
	})

	result.Enhanced = c.enhance(result)

	return result, nil
}

// formGroup selects the primary and assembles the group record.
// Primary selection: highest tool reliability, then higher severity, then
// earliest id lexicographically.
func (c *Clusterer) formGroup(members []*finding.Issue, scores []similarity.Score) (*Group, error) {
	primary := members[0]
	for _, candidate := range members[1:] {
		if c.outranks(candidate, primary) {
			primary = candidate
		}
	}

	duplicates := make([]*finding.Issue, 0, len(members)-1)

	for _, member := range members {
		if member == primary {
			continue
		}

		duplicates = append(duplicates, member)
	}

	if len(duplicates) != len(members)-1 {
		return nil, fmt.Errorf("%w: group for %s", ErrPrimaryInDuplicates, primary.ID)
	}

	sort.Slice(duplicates, func(i, j int) bool { return duplicates[i].ID < duplicates[j].ID })

	confidence := groupConfidence(scores)

	return &Group{
		ID:            newGroupID(primary.ID),
		Primary:       primary,
		Duplicates:    duplicates,
		Confidence:    confidence,
		MergeStrategy: selectMergeStrategy(confidence),
		Evidence:      mergeEvidence(members),
		Consensus:     consensusSeverity(members),
		Scores:        scores,
	}, nil
}

// outranks reports whether a should be primary over b.
func (c *Clusterer) outranks(a, b *finding.Issue) bool {
	reliabilityA := c.scorer.Reliability(a.ToolName)
	reliabilityB := c.scorer.Reliability(b.ToolName)

	if reliabilityA != reliabilityB {
		return reliabilityA > reliabilityB
	}

	if a.Severity.Num() != b.Severity.Num() {
		return a.Severity.Num() > b.Severity.Num()
	}

	return a.ID < b.ID
}

// groupConfidence averages the pairwise scores against the pivot. The
// averaged factors keep the per-factor breakdown meaningful for evidence.
func groupConfidence(scores []similarity.Score) similarity.Score {
	if len(scores) == 0 {
		return similarity.Score{}
	}

	var combined similarity.Score

	for _, score := range scores {
		combined.Overall += score.Overall
		combined.Factors.Path += score.Factors.Path
		combined.Factors.Line += score.Factors.Line
		combined.Factors.Rule += score.Factors.Rule
		combined.Factors.Message += score.Factors.Message
		combined.Factors.Tool += score.Factors.Tool
		combined.Factors.Context += score.Factors.Context
	}

	n := float64(len(scores))
	combined.Overall /= n
	combined.Factors.Path /= n
	combined.Factors.Line /= n
	combined.Factors.Rule /= n
	combined.Factors.Message /= n
	combined.Factors.Tool /= n
	combined.Factors.Context /= n
	combined.Strength = similarity.ClassifyStrength(combined.Overall)

	return combined
}

// enhance produces the deduplicated issue stream: each group contributes
// its primary enriched with consensus severity, combined evidence, and a
// tool name of the form "<primary>+<duplicate count>".
func (c *Clusterer) enhance(result *Result) []*finding.Issue {
	enhanced := make([]*finding.Issue, 0, len(result.Groups)+len(result.Unique))

	for _, group := range result.Groups {
		issue := group.Primary.Clone()
		issue.ToolName = group.Primary.ToolName + "+" + strconv.Itoa(len(group.Duplicates))
		issue.Severity = group.Consensus

		if issue.Metadata == nil {
			issue.Metadata = make(map[string]any, 2)
		}

		issue.Metadata["duplicateGroupId"] = group.ID
		issue.Metadata["duplicateEvidence"] = group.Evidence

		enhanced = append(enhanced, issue)
	}

	enhanced = append(enhanced, result.Unique...)

	sort.Slice(enhanced, func(i, j int) bool { return enhanced[i].ID < enhanced[j].ID })

	return enhanced
}
