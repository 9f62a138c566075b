package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Quality degradation ---.

func TestDegradationRatiosAccelerating(t *testing.T) {
	t.Parallel()

	weekly := []float64{1, 1, 2, 2, 4, 4, 6, 7, 9, 11}

	avgRatio, share, windows := degradationRatios(weekly)

	require.Positive(t, windows)
	assert.Greater(t, avgRatio, degradationAvgRatioThreshold)
	assert.GreaterOrEqual(t, share, degradationWindowShare)
}

func TestDegradationRatiosFlat(t *testing.T) {
	t.Parallel()

	weekly := []float64{3, 3, 3, 3, 3, 3, 3, 3}

	avgRatio, share, windows := degradationRatios(weekly)

	require.Positive(t, windows)
	assert.InDelta(t, 1.0, avgRatio, 1e-9)
	assert.Zero(t, share)
}

func TestDegradationRatiosTooShort(t *testing.T) {
	t.Parallel()

	_, _, windows := degradationRatios([]float64{1, 2, 3})

	assert.Zero(t, windows)
}

func TestDegradationPatternConfidence(t *testing.T) {
	t.Parallel()

	history := FileHistory{FilePath: testFile}

	// Ten weekly commit windows with accelerating new-issue counts.
	weekly := []int{1, 1, 2, 2, 4, 4, 6, 7, 9, 11}
	for week, count := range weekly {
		history.IssueHistory = append(history.IssueHistory, IssueHistoryEntry{
			Date:      testEpoch.AddDate(0, 0, week*7),
			NewIssues: count,
		})
	}

	patterns := degradationPatterns([]FileHistory{history})

	require.Len(t, patterns, 1)
	assert.Equal(t, PatternQualityDegradation, patterns[0].Type)
	assert.Equal(t, testFile, patterns[0].Subject)
	assert.GreaterOrEqual(t, patterns[0].Confidence, 0.6)
}

// --- Hotspot formation ---.

func TestHotspotFormationRequiresTrend(t *testing.T) {
	t.Parallel()

	rising := FileHistory{FilePath: "src/rising.ts"}
	for i := range 8 {
		rising.IssueHistory = append(rising.IssueHistory, IssueHistoryEntry{TotalIssues: i * 2})
	}

	noisy := FileHistory{FilePath: "src/noisy.ts"}
	for _, total := range []int{5, 1, 6, 0, 4, 2} {
		noisy.IssueHistory = append(noisy.IssueHistory, IssueHistoryEntry{TotalIssues: total})
	}

	patterns := hotspotFormationPatterns([]FileHistory{rising, noisy})

	require.Len(t, patterns, 1)
	assert.Equal(t, "src/rising.ts", patterns[0].Subject)
	assert.Contains(t, patterns[0].Description, "Issue count on src/rising.ts")
	assert.LessOrEqual(t, patterns[0].Confidence, maxPatternConfidence)
}

// --- Cyclic regression ---.

func TestCyclicRegressionPattern(t *testing.T) {
	t.Parallel()

	// Three fix-regress cycles, each exactly five days long.
	var timeline []TimelineEntry

	timeline = append(timeline, TimelineEntry{Date: testEpoch, Action: ActionIntroduced})

	for cycle := range 3 {
		base := testEpoch.AddDate(0, 0, cycle*10)
		timeline = append(timeline,
			TimelineEntry{Date: base.AddDate(0, 0, 2), Action: ActionFixed},
			TimelineEntry{Date: base.AddDate(0, 0, 7), Action: ActionRegressed},
		)
	}

	evolution := IssueEvolution{RuleID: testRule, FilePath: testFile, IssueCount: 1, Timeline: timeline}

	patterns := cyclicRegressionPatterns([]IssueEvolution{evolution})

	require.Len(t, patterns, 1)
	assert.Equal(t, PatternCyclicRegression, patterns[0].Type)
	assert.LessOrEqual(t, patterns[0].Confidence, maxPatternConfidence)
	assert.Greater(t, patterns[0].Confidence, cyclicBaseConfidence)
}

func TestCyclicRegressionNeedsTwoCycles(t *testing.T) {
	t.Parallel()

	timeline := []TimelineEntry{
		{Date: testEpoch, Action: ActionIntroduced},
		{Date: testEpoch.AddDate(0, 0, 2), Action: ActionFixed},
		{Date: testEpoch.AddDate(0, 0, 5), Action: ActionRegressed},
	}

	evolution := IssueEvolution{RuleID: testRule, FilePath: testFile, Timeline: timeline}

	assert.Empty(t, cyclicRegressionPatterns([]IssueEvolution{evolution}))
}

func TestFixRegressDurations(t *testing.T) {
	t.Parallel()

	timeline := []TimelineEntry{
		{Date: testEpoch, Action: ActionIntroduced},
		{Date: testEpoch.AddDate(0, 0, 1), Action: ActionFixed},
		{Date: testEpoch.AddDate(0, 0, 4), Action: ActionRegressed},
		{Date: testEpoch.AddDate(0, 0, 6), Action: ActionFixed},
		{Date: testEpoch.AddDate(0, 0, 13), Action: ActionRegressed},
	}

	durations := fixRegressDurations(timeline)

	require.Len(t, durations, 2)
	assert.InDelta(t, 3.0, durations[0], 1e-9)
	assert.InDelta(t, 7.0, durations[1], 1e-9)
}
