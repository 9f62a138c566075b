package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

const (
	testFile = "src/payment.ts"
	testRule = "javascript:S2703"
)

var testEpoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func commitAt(day int, author, message string, files ...string) gitlog.Commit {
	commit := gitlog.Commit{
		Hash:    "hash-" + string(rune('a'+day)),
		Author:  author,
		Email:   author + "@example.com",
		Date:    testEpoch.AddDate(0, 0, day),
		Message: message,
	}

	for _, file := range files {
		commit.Files = append(commit.Files, gitlog.FileChange{Path: file, LinesAdded: 10, LinesDeleted: 2})
	}

	return commit
}

func commitPtrs(commits []gitlog.Commit) []*gitlog.Commit {
	ptrs := make([]*gitlog.Commit, len(commits))
	for i := range commits {
		ptrs[i] = &commits[i]
	}

	return ptrs
}

// --- Timeline construction ---.

func TestBuildTimelineStateMachine(t *testing.T) {
	t.Parallel()

	commits := []gitlog.Commit{
		commitAt(0, "alice", "add payment flow", testFile),
		commitAt(3, "bob", "tweak retry logic", testFile),
		commitAt(6, "alice", "fix null deref", testFile),
		commitAt(9, "bob", "extend api", testFile),
	}

	analyzer := NewAnalyzer()
	timeline := analyzer.buildTimeline(commitPtrs(commits))

	require.Len(t, timeline, 4)
	assert.Equal(t, ActionIntroduced, timeline[0].Action)
	assert.Equal(t, ActionModified, timeline[1].Action)
	assert.Equal(t, ActionFixed, timeline[2].Action)
	assert.Equal(t, ActionRegressed, timeline[3].Action)
}

func TestBuildTimelineMonotonicDates(t *testing.T) {
	t.Parallel()

	commits := []gitlog.Commit{
		commitAt(0, "alice", "init", testFile),
		commitAt(2, "alice", "fix bug", testFile),
		commitAt(5, "bob", "more work", testFile),
		commitAt(8, "bob", "fix again", testFile),
		commitAt(12, "alice", "back at it", testFile),
	}

	analyzer := NewAnalyzer()
	timeline := analyzer.buildTimeline(commitPtrs(commits))

	for i := 1; i < len(timeline); i++ {
		assert.False(t, timeline[i].Date.Before(timeline[i-1].Date))
	}

	// Fixed and regressed entries strictly alternate.
	var lastLifecycle TimelineAction

	for _, entry := range timeline {
		switch entry.Action {
		case ActionFixed:
			assert.NotEqual(t, ActionFixed, lastLifecycle)
			lastLifecycle = ActionFixed
		case ActionRegressed:
			assert.Equal(t, ActionFixed, lastLifecycle)
			lastLifecycle = ActionRegressed
		case ActionIntroduced, ActionModified:
		}
	}
}

// --- Pattern classification ---.

func TestClassifyTimeline(t *testing.T) {
	t.Parallel()

	entry := func(action TimelineAction) TimelineEntry {
		return TimelineEntry{Action: action}
	}

	tests := []struct {
		name     string
		timeline []TimelineEntry
		want     EvolutionPattern
	}{
		{
			name:     "two regressions is recurring",
			timeline: []TimelineEntry{entry(ActionIntroduced), entry(ActionFixed), entry(ActionRegressed), entry(ActionFixed), entry(ActionRegressed)},
			want:     PatternRecurring,
		},
		{
			name:     "regression after fix is recurring",
			timeline: []TimelineEntry{entry(ActionIntroduced), entry(ActionFixed), entry(ActionRegressed)},
			want:     PatternRecurring,
		},
		{
			name:     "ends fixed",
			timeline: []TimelineEntry{entry(ActionIntroduced), entry(ActionModified), entry(ActionFixed)},
			want:     PatternFixed,
		},
		{
			name:     "modifications dominate",
			timeline: []TimelineEntry{entry(ActionIntroduced), entry(ActionModified), entry(ActionModified)},
			want:     PatternPersistent,
		},
		{
			name:     "single introduction",
			timeline: []TimelineEntry{entry(ActionIntroduced)},
			want:     PatternIntroduced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, classifyTimeline(tt.timeline))
		})
	}
}

func TestAverageLifespan(t *testing.T) {
	t.Parallel()

	timeline := []TimelineEntry{
		{Date: testEpoch, Action: ActionIntroduced},
		{Date: testEpoch.AddDate(0, 0, 4), Action: ActionFixed},
		{Date: testEpoch.AddDate(0, 0, 10), Action: ActionRegressed},
		{Date: testEpoch.AddDate(0, 0, 12), Action: ActionFixed},
	}

	// Spans: 4 days (introduced to fix) and 2 days (regression to fix).
	assert.InDelta(t, 3.0, averageLifespan(timeline), 1e-9)
}

func TestAverageLifespanNoFixes(t *testing.T) {
	t.Parallel()

	timeline := []TimelineEntry{
		{Date: testEpoch, Action: ActionIntroduced},
		{Date: testEpoch.AddDate(0, 0, 8), Action: ActionModified},
	}

	assert.InDelta(t, 8.0, averageLifespan(timeline), 1e-9)
}
