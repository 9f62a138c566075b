package temporal

import (
	"fmt"
	"math"
	"sort"

	"github.com/crosslint-tech/crosslint/pkg/alg/stats"
)

// Prediction thresholds and weights.
const (
	hotspotRiskThreshold     = 0.3
	hotspotUrgentRisk        = 0.5
	hotspotMinLeadDays       = 7
	hotspotLeadBudgetDays    = 60.0
	hotspotChangeFreqWeight  = 0.3
	hotspotIssueGrowthWeight = 0.25
	hotspotPatternWeight     = 0.1
	hotspotComplexityWeight  = 0.15

	predictionConsistencyShare = 0.5
	predictionStabilityShare   = 0.3
	predictionCoverageShare    = 0.2
	predictionCoverageDays     = 30.0
)

// predictions derives the issue forecast and per-file hotspot risks.
func (a *Analyzer) predictions(trends []Trend, histories []FileHistory, patterns []Pattern) Predictions {
	return Predictions{
		Issues:   issuePrediction(trends),
		Hotspots: hotspotPredictions(histories, patterns),
	}
}

// issuePrediction projects the issue_count trend thirty days out.
// Confidence combines trend consistency, velocity stability, and data
// coverage.
func issuePrediction(trends []Trend) *IssuePrediction {
	var trend *Trend

	for i := range trends {
		if trends[i].Metric == MetricIssueCount {
			trend = &trends[i]

			break
		}
	}

	if trend == nil || len(trend.Points) == 0 || len(trend.Forecast) == 0 {
		return nil
	}

	current := trend.Points[len(trend.Points)-1].Value
	predicted := trend.Forecast[len(trend.Forecast)-1].Predicted

	velocities := make([]float64, 0, len(trend.Points)-1)
	for i := 1; i < len(trend.Points); i++ {
		velocities = append(velocities, trend.Points[i].Value-trend.Points[i-1].Value)
	}

	stability := 1.0
	if len(velocities) > 0 {
		stability = 1 / (1 + stats.Variance(velocities))
	}

	coverage := math.Min(1, float64(len(trend.Points))/predictionCoverageDays)

	confidence := predictionConsistencyShare*trend.RSquared +
		predictionStabilityShare*stability +
		predictionCoverageShare*coverage

	prediction := &IssuePrediction{
		HorizonDays:    forecastHorizonDays,
		CurrentValue:   current,
		PredictedValue: predicted,
		Confidence:     stats.Clamp(confidence, 0, 1),
	}

	switch trend.Direction {
	case TrendIncreasing:
		prediction.Recommendation = []string{
			fmt.Sprintf("Issue count is rising by %.1f per day; monitor high-velocity files", trend.Slope),
			"Reserve remediation capacity ahead of the projected growth",
		}
	case TrendDecreasing:
		prediction.Recommendation = []string{
			"Issue count is falling; keep the current remediation cadence",
		}
	case TrendStable:
		prediction.Recommendation = []string{
			"Issue count is stable; monitor high-velocity files for new growth",
		}
	}

	return prediction
}

// hotspotPredictions scores every file's risk of becoming a hotspot and
// returns those above threshold, highest risk first.
func hotspotPredictions(histories []FileHistory, patterns []Pattern) []HotspotPrediction {
	patternFiles := make(map[string]struct{})
	for _, pattern := range patterns {
		patternFiles[pattern.Subject] = struct{}{}
	}

	var predictions []HotspotPrediction

	for _, history := range histories {
		risk := hotspotRisk(&history, patternFiles)
		if risk <= hotspotRiskThreshold {
			continue
		}

		prediction := HotspotPrediction{FilePath: history.FilePath, Risk: risk}

		if risk > hotspotUrgentRisk && history.ChangeFrequency > 0 {
			lead := hotspotLeadBudgetDays / history.ChangeFrequency
			prediction.TimeToHotspotDays = int(math.Max(hotspotMinLeadDays, lead))
		}

		predictions = append(predictions, prediction)
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].Risk != predictions[j].Risk {
			return predictions[i].Risk > predictions[j].Risk
		}

		return predictions[i].FilePath < predictions[j].FilePath
	})

	return predictions
}

// hotspotRisk is a weighted sum of change frequency, issue growth,
// pattern involvement, and complexity increase, each clamped to [0,1].
func hotspotRisk(history *FileHistory, patternFiles map[string]struct{}) float64 {
	risk := hotspotChangeFreqWeight * stats.Clamp(history.ChangeFrequency, 0, 1)

	risk += hotspotIssueGrowthWeight * stats.Clamp(issueGrowth(history.IssueHistory), 0, 1)

	if _, ok := patternFiles[history.FilePath]; ok {
		risk += hotspotPatternWeight
	}

	if complexityIncreased(history.ComplexityEvolution) {
		risk += hotspotComplexityWeight
	}

	return risk
}

// issueGrowth is the slope of total issues over commit windows.
func issueGrowth(entries []IssueHistoryEntry) float64 {
	if len(entries) < 2 {
		return 0
	}

	xs := make([]float64, len(entries))
	ys := make([]float64, len(entries))

	for i, entry := range entries {
		xs[i] = float64(i)
		ys[i] = float64(entry.TotalIssues)
	}

	return stats.FitLinear(xs, ys).Slope
}

func complexityIncreased(snapshots []ComplexitySnapshot) bool {
	if len(snapshots) < 2 {
		return false
	}

	return snapshots[len(snapshots)-1].Cyclomatic > snapshots[0].Cyclomatic
}
