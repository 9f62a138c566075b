package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/crosslint-tech/crosslint/pkg/alg/stats"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

// Pattern detection thresholds.
const (
	hotspotSlopeThreshold       = 0.1
	hotspotCorrelationThreshold = 0.7
	hotspotConfidenceFactor     = 0.8
	maxPatternConfidence        = 0.95

	degradationAvgRatioThreshold = 1.3
	degradationWindowRatio       = 1.2
	degradationWindowShare       = 0.6
	degradationBaseConfidence    = 0.5
	degradationRatioWeight       = 0.2

	cyclicMinCycles        = 2
	cyclicManyCycles       = 3
	cyclicRegularCV        = 0.5
	cyclicFrequentAvgDays  = 30.0
	cyclicBaseConfidence   = 0.5
	cyclicCountBonus       = 0.15
	cyclicRegularityWeight = 0.2
	cyclicFrequencyBonus   = 0.15

	authorRateThreshold   = 1.5
	authorTimingThreshold = 0.7
	authorWindowDays      = 3.0
)

// detectPatterns runs all four temporal pattern detectors.
func (a *Analyzer) detectPatterns(commits []gitlog.Commit, histories []FileHistory, evolutions []IssueEvolution) []Pattern {
	var patterns []Pattern

	patterns = append(patterns, hotspotFormationPatterns(histories)...)
	patterns = append(patterns, degradationPatterns(histories)...)
	patterns = append(patterns, cyclicRegressionPatterns(evolutions)...)
	patterns = append(patterns, a.authorCorrelationPatterns(commits, evolutions)...)

	return patterns
}

// --- Hotspot formation ---.

// hotspotFormationPatterns regresses per-window issue density against
// the window index for each file.
func hotspotFormationPatterns(histories []FileHistory) []Pattern {
	var patterns []Pattern

	for _, history := range histories {
		if len(history.IssueHistory) < 2 {
			continue
		}

		xs := make([]float64, len(history.IssueHistory))
		ys := make([]float64, len(history.IssueHistory))

		for i, entry := range history.IssueHistory {
			xs[i] = float64(i)
			ys[i] = float64(entry.TotalIssues)
		}

		fit := stats.FitLinear(xs, ys)
		correlation := stats.Pearson(xs, ys)

		if fit.Slope <= hotspotSlopeThreshold || correlation <= hotspotCorrelationThreshold {
			continue
		}

		patterns = append(patterns, Pattern{
			ID:      patternID(PatternHotspotFormation, history.FilePath),
			Type:    PatternHotspotFormation,
			Subject: history.FilePath,
			Description: fmt.Sprintf("Issue count on %s is rising at %.2f per change window",
				history.FilePath, fit.Slope),
			Confidence: stats.Clamp(hotspotConfidenceFactor*correlation, 0, maxPatternConfidence),
			Evidence: []string{
				fmt.Sprintf("slope=%.3f over %d windows", fit.Slope, len(xs)),
				fmt.Sprintf("correlation=%.3f", correlation),
			},
		})
	}

	return patterns
}

// --- Quality degradation ---.

// degradationPatterns buckets each file's net new issues by week and
// compares moving averages.
func degradationPatterns(histories []FileHistory) []Pattern {
	var patterns []Pattern

	for _, history := range histories {
		weekly := weeklyNetNew(history.IssueHistory)

		avgRatio, share, windows := degradationRatios(weekly)
		if windows == 0 {
			continue
		}

		if avgRatio <= degradationAvgRatioThreshold || share < degradationWindowShare {
			continue
		}

		confidence := stats.Clamp(
			degradationBaseConfidence+degradationRatioWeight*(avgRatio-degradationAvgRatioThreshold),
			0, maxPatternConfidence)

		patterns = append(patterns, Pattern{
			ID:      patternID(PatternQualityDegradation, history.FilePath),
			Type:    PatternQualityDegradation,
			Subject: history.FilePath,
			Description: fmt.Sprintf("New issues on %s are accelerating week over week (avg ratio %.2f)",
				history.FilePath, avgRatio),
			Confidence: confidence,
			Evidence: []string{
				fmt.Sprintf("avgRatio=%.2f across %d windows", avgRatio, windows),
				fmt.Sprintf("%.0f%% of windows above %.1fx", share*100, degradationWindowRatio),
			},
		})
	}

	return patterns
}

// weeklyNetNew buckets net new issues into 7-day windows from the first
// entry's date.
func weeklyNetNew(entries []IssueHistoryEntry) []float64 {
	if len(entries) == 0 {
		return nil
	}

	start := entries[0].Date
	span := entries[len(entries)-1].Date.Sub(start)
	weeks := int(span.Hours()/(hoursPerDay*7)) + 1

	counts := make([]float64, weeks)

	for _, entry := range entries {
		week := int(entry.Date.Sub(start).Hours() / (hoursPerDay * 7))
		if week >= 0 && week < weeks {
			counts[week] += float64(entry.NewIssues - entry.FixedIssues)
		}
	}

	return counts
}

// degradationRatios slides a 3-wide moving average over the weekly
// counts and compares each window against the window three weeks prior.
func degradationRatios(weekly []float64) (avgRatio, shareAbove float64, windows int) {
	const window = 3

	if len(weekly) < 2*window {
		return 0, 0, 0
	}

	movingAvg := func(end int) float64 {
		return (weekly[end-2] + weekly[end-1] + weekly[end]) / window
	}

	var (
		sum   float64
		above int
	)

	for i := 2*window - 1; i < len(weekly); i++ {
		recent := movingAvg(i)
		prior := movingAvg(i - window)

		if prior == 0 {
			continue
		}

		ratio := recent / prior
		sum += ratio
		windows++

		if ratio > degradationWindowRatio {
			above++
		}
	}

	if windows == 0 {
		return 0, 0, 0
	}

	return sum / float64(windows), float64(above) / float64(windows), windows
}

// --- Cyclic regression ---.

// cyclicRegressionPatterns finds issue keys that oscillate between fixed
// and regressed.
func cyclicRegressionPatterns(evolutions []IssueEvolution) []Pattern {
	var patterns []Pattern

	for _, evolution := range evolutions {
		durations := fixRegressDurations(evolution.Timeline)
		if len(durations) < cyclicMinCycles {
			continue
		}

		avg := stats.Mean(durations)
		cv := stats.CoefficientOfVariation(durations)

		many := len(durations) >= cyclicManyCycles
		regular := cv < cyclicRegularCV
		frequent := avg < cyclicFrequentAvgDays

		if !many && !regular && !frequent {
			continue
		}

		confidence := cyclicBaseConfidence

		if many {
			confidence += cyclicCountBonus
		}

		if regular {
			confidence += cyclicRegularityWeight * (1 - cv)
		}

		if frequent {
			confidence += cyclicFrequencyBonus
		}

		subject := evolution.RuleID + "@" + evolution.FilePath

		patterns = append(patterns, Pattern{
			ID:      patternID(PatternCyclicRegression, subject),
			Type:    PatternCyclicRegression,
			Subject: subject,
			Description: fmt.Sprintf("%s on %s was fixed and regressed %d times",
				evolution.RuleID, evolution.FilePath, len(durations)),
			Confidence: stats.Clamp(confidence, 0, maxPatternConfidence),
			Evidence: []string{
				fmt.Sprintf("cycles=%d avgDays=%.1f cv=%.2f", len(durations), avg, cv),
			},
		})
	}

	return patterns
}

// fixRegressDurations returns the day spans of each fixed-to-regressed
// pair in the timeline.
func fixRegressDurations(timeline []TimelineEntry) []float64 {
	var (
		durations []float64
		fixedAt   *time.Time
	)

	for i := range timeline {
		entry := timeline[i]

		switch entry.Action {
		case ActionFixed:
			fixedAt = &timeline[i].Date
		case ActionRegressed:
			if fixedAt != nil {
				durations = append(durations, entry.Date.Sub(*fixedAt).Hours()/hoursPerDay)
				fixedAt = nil
			}
		case ActionIntroduced, ActionModified:
		}
	}

	return durations
}

// --- Author correlation ---.

// authorCorrelationPatterns looks for authors whose commits closely
// precede issue introductions on files they touched.
func (a *Analyzer) authorCorrelationPatterns(commits []gitlog.Commit, evolutions []IssueEvolution) []Pattern {
	type authorStats struct {
		commits   int
		issues    int
		timeDiffs []float64
	}

	perAuthor := make(map[string]*authorStats)

	for i := range commits {
		author := commits[i].Author
		if author == "" {
			continue
		}

		if _, ok := perAuthor[author]; !ok {
			perAuthor[author] = &authorStats{}
		}

		perAuthor[author].commits++
	}

	window := time.Duration(authorWindowDays*hoursPerDay) * time.Hour

	for _, evolution := range evolutions {
		for _, entry := range evolution.Timeline {
			if entry.Action != ActionIntroduced {
				continue
			}

			for i := range commits {
				commit := &commits[i]

				if commit.Author == "" || !commit.Touches(evolution.FilePath) {
					continue
				}

				diff := entry.Date.Sub(commit.Date)
				if diff < 0 || diff > window {
					continue
				}

				stat := perAuthor[commit.Author]
				stat.issues += evolution.IssueCount
				stat.timeDiffs = append(stat.timeDiffs, diff.Hours()/hoursPerDay)
			}
		}
	}

	var patterns []Pattern

	for _, author := range sortedKeys(perAuthor) {
		stat := perAuthor[author]

		if stat.commits == 0 || len(stat.timeDiffs) == 0 {
			continue
		}

		rate := float64(stat.issues) / float64(stat.commits)
		timing := 1 - stats.Mean(stat.timeDiffs)/authorWindowDays

		if rate <= authorRateThreshold || timing <= authorTimingThreshold {
			continue
		}

		patterns = append(patterns, Pattern{
			ID:      patternID(PatternAuthorCorrelation, author),
			Type:    PatternAuthorCorrelation,
			Subject: author,
			Description: fmt.Sprintf("Commits by %s closely precede issue introductions (%.1f issues per commit)",
				author, rate),
			Confidence: stats.Clamp((rate/authorRateThreshold)*timing, 0, maxPatternConfidence),
			Evidence: []string{
				fmt.Sprintf("rate=%.2f timingScore=%.2f commits=%d", rate, timing, stat.commits),
			},
		})
	}

	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Subject < patterns[j].Subject })

	return patterns
}
