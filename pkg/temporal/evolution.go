package temporal

import (
	"sort"

	"github.com/crosslint-tech/crosslint/pkg/alg/stats"
	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

// issueState tracks an issue key through its timeline.
type issueState int

const (
	stateActive issueState = iota
	stateFixed
)

const hoursPerDay = 24

// issueEvolutions reconstructs one lifecycle per (ruleId, filePath)
// group from the commit history, sorted by rule then path.
func (a *Analyzer) issueEvolutions(commits []gitlog.Commit, issues []*finding.Issue) []IssueEvolution {
	type groupKey struct {
		ruleID   string
		filePath string
	}

	grouped := make(map[groupKey][]*finding.Issue)

	for _, issue := range issues {
		if issue.Entity == nil {
			continue
		}

		key := groupKey{ruleID: issue.RuleID, filePath: issue.Path()}
		grouped[key] = append(grouped[key], issue)
	}

	keys := make([]groupKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ruleID != keys[j].ruleID {
			return keys[i].ruleID < keys[j].ruleID
		}

		return keys[i].filePath < keys[j].filePath
	})

	touching := commitsByFile(commits)

	evolutions := make([]IssueEvolution, 0, len(keys))

	for _, key := range keys {
		evolution := IssueEvolution{
			RuleID:     key.ruleID,
			FilePath:   key.filePath,
			IssueCount: len(grouped[key]),
		}

		evolution.Timeline = a.buildTimeline(touching[key.filePath])
		evolution.Pattern = classifyTimeline(evolution.Timeline)
		evolution.AverageLifespan = averageLifespan(evolution.Timeline)

		evolutions = append(evolutions, evolution)
	}

	return evolutions
}

// buildTimeline walks the file's commits chronologically with an
// active/fixed state machine. The issue is present in the current
// snapshot, so a fix followed by further changes reads as a regression.
func (a *Analyzer) buildTimeline(commits []*gitlog.Commit) []TimelineEntry {
	if len(commits) == 0 {
		return nil
	}

	timeline := make([]TimelineEntry, 0, len(commits))
	state := stateActive

	timeline = append(timeline, TimelineEntry{
		Date:       commits[0].Date,
		CommitHash: commits[0].Hash,
		Author:     commits[0].Author,
		Action:     ActionIntroduced,
	})

	for _, commit := range commits[1:] {
		entry := TimelineEntry{
			Date:       commit.Date,
			CommitHash: commit.Hash,
			Author:     commit.Author,
		}

		switch {
		case state == stateFixed:
			entry.Action = ActionRegressed
			state = stateActive
		case a.isFixCommit(commit):
			entry.Action = ActionFixed
			state = stateFixed
		default:
			entry.Action = ActionModified
		}

		timeline = append(timeline, entry)
	}

	return timeline
}

// classifyTimeline applies the pattern rules in priority order.
func classifyTimeline(timeline []TimelineEntry) EvolutionPattern {
	if len(timeline) == 0 {
		return PatternIntroduced
	}

	var introduced, modified, fixed, regressed int

	for _, entry := range timeline {
		switch entry.Action {
		case ActionIntroduced:
			introduced++
		case ActionModified:
			modified++
		case ActionFixed:
			fixed++
		case ActionRegressed:
			regressed++
		}
	}

	last := timeline[len(timeline)-1].Action

	switch {
	case regressed >= 2 || (regressed >= 1 && fixed >= 1):
		return PatternRecurring
	case regressed == 1:
		return PatternRegression
	case last == ActionFixed:
		return PatternFixed
	case fixed > 0:
		return PatternPersistent
	case modified >= introduced:
		return PatternPersistent
	default:
		return PatternIntroduced
	}
}

// averageLifespan is the mean days between matched active-start and fix
// entries; with no completed fixes it is the full timeline span.
func averageLifespan(timeline []TimelineEntry) float64 {
	if len(timeline) == 0 {
		return 0
	}

	var spans []float64

	activeStart := timeline[0].Date

	for _, entry := range timeline {
		switch entry.Action {
		case ActionFixed:
			spans = append(spans, entry.Date.Sub(activeStart).Hours()/hoursPerDay)
		case ActionRegressed:
			activeStart = entry.Date
		case ActionIntroduced, ActionModified:
		}
	}

	if len(spans) > 0 {
		return stats.Mean(spans)
	}

	first := timeline[0].Date
	last := timeline[len(timeline)-1].Date

	return last.Sub(first).Hours() / hoursPerDay
}
