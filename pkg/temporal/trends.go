package temporal

import (
	"math"
	"sort"
	"time"

	"github.com/crosslint-tech/crosslint/pkg/alg/stats"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

// Tracked trend metrics.
const (
	MetricIssueCount = "issue_count"
	MetricComplexity = "complexity"
	MetricChurnRate  = "churn_rate"
)

// Stability epsilons per metric: slopes below these count as stable.
var stableEpsilon = map[string]float64{
	MetricIssueCount: 0.1,
	MetricComplexity: 0.5,
	MetricChurnRate:  10,
}

// Forecast confidence decay: per-step confidence is R²·exp(−i/(decay·N)).
const forecastDecayShare = 0.3

// uncertaintyFactor scales the forecast uncertainty band.
const uncertaintyFactor = 0.2

// buildTrends fits daily series for each tracked metric and forecasts
// thirty days ahead.
func (a *Analyzer) buildTrends(commits []gitlog.Commit, histories []FileHistory, _ []IssueEvolution) []Trend {
	var trends []Trend

	if points := issueCountSeries(histories); len(points) > 0 {
		trends = append(trends, fitTrend(MetricIssueCount, points))
	}

	if points := complexitySeries(histories); len(points) > 0 {
		trends = append(trends, fitTrend(MetricComplexity, points))
	}

	if points := churnSeries(commits); len(points) > 0 {
		trends = append(trends, fitTrend(MetricChurnRate, points))
	}

	return trends
}

// dayKey truncates a timestamp to its UTC date.
func dayKey(t time.Time) time.Time {
	return t.UTC().Truncate(hoursPerDay * time.Hour)
}

func sortedSeries(byDay map[time.Time]float64) []TrendPoint {
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		points = append(points, TrendPoint{Date: day, Value: byDay[day]})
	}

	return points
}

// issueCountSeries is the cumulative net new issue count per day.
func issueCountSeries(histories []FileHistory) []TrendPoint {
	netByDay := make(map[time.Time]float64)

	for _, history := range histories {
		for _, entry := range history.IssueHistory {
			netByDay[dayKey(entry.Date)] += float64(entry.NewIssues - entry.FixedIssues)
		}
	}

	points := sortedSeries(netByDay)

	var running float64

	for i := range points {
		running += points[i].Value
		points[i].Value = running
	}

	return points
}

// complexitySeries averages sampled cyclomatic complexity per day.
func complexitySeries(histories []FileHistory) []TrendPoint {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]float64)

	for _, history := range histories {
		for _, snapshot := range history.ComplexityEvolution {
			day := dayKey(snapshot.Date)
			sums[day] += float64(snapshot.Cyclomatic)
			counts[day]++
		}
	}

	for day := range sums {
		sums[day] /= counts[day]
	}

	return sortedSeries(sums)
}

// churnSeries sums lines added plus deleted per day.
func churnSeries(commits []gitlog.Commit) []TrendPoint {
	byDay := make(map[time.Time]float64)

	for _, commit := range commits {
		var churn int

		for _, file := range commit.Files {
			churn += file.LinesAdded + file.LinesDeleted
		}

		byDay[dayKey(commit.Date)] += float64(churn)
	}

	return sortedSeries(byDay)
}

// fitTrend runs ordinary least squares over the daily points and
// projects the fitted line forward.
func fitTrend(metric string, points []TrendPoint) Trend {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))

	origin := points[0].Date

	for i, point := range points {
		xs[i] = point.Date.Sub(origin).Hours() / hoursPerDay
		ys[i] = point.Value
	}

	fit := stats.FitLinear(xs, ys)

	trend := Trend{
		Metric:    metric,
		Slope:     fit.Slope,
		Intercept: fit.Intercept,
		RSquared:  fit.RSquared,
		Points:    points,
		Direction: direction(metric, fit.Slope),
	}

	trend.Forecast = forecast(fit, xs[len(xs)-1], points[len(points)-1].Date, forecastHorizonDays)

	return trend
}

func direction(metric string, slope float64) TrendDirection {
	if math.Abs(slope) < stableEpsilon[metric] {
		return TrendStable
	}

	if slope > 0 {
		return TrendIncreasing
	}

	return TrendDecreasing
}

// forecast projects the fitted line horizon days past the last
// observation with decaying confidence.
func forecast(fit stats.LinearFit, lastX float64, lastDate time.Time, horizon int) []ForecastPoint {
	points := make([]ForecastPoint, 0, horizon)

	for i := 1; i <= horizon; i++ {
		predicted := fit.At(lastX + float64(i))
		confidence := fit.RSquared * math.Exp(-float64(i)/(forecastDecayShare*float64(horizon)))
		uncertainty := math.Sqrt(1-fit.RSquared) * predicted * uncertaintyFactor

		points = append(points, ForecastPoint{
			Date:        lastDate.Add(time.Duration(i) * hoursPerDay * time.Hour),
			Predicted:   predicted,
			Confidence:  stats.Clamp(confidence, 0, 1),
			Uncertainty: math.Abs(uncertainty),
		})
	}

	return points
}
