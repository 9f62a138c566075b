// Package temporal reconstructs per-file history, issue evolution,
// patterns, trends, regressions, and predictions from commit history and
// the current issue set.
package temporal

import (
	"time"

	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

// ComplexitySnapshot is one sampled point of a file's complexity
// evolution.
type ComplexitySnapshot struct {
	Date          time.Time `json:"date"          yaml:"date"`
	CommitHash    string    `json:"commitHash"    yaml:"commit_hash"`
	Lines         int       `json:"lines"         yaml:"lines"`
	Cyclomatic    int       `json:"cyclomatic"    yaml:"cyclomatic"`
	FunctionCount int       `json:"functionCount" yaml:"function_count"`
	ClassCount    int       `json:"classCount"    yaml:"class_count"`
}

// IssueHistoryEntry records issue activity attributed to one commit
// window on a file.
type IssueHistoryEntry struct {
	Date         time.Time      `json:"date"         yaml:"date"`
	CommitHash   string         `json:"commitHash"   yaml:"commit_hash"`
	Author       string         `json:"author"       yaml:"author"`
	NewIssues    int            `json:"newIssues"    yaml:"new_issues"`
	FixedIssues  int            `json:"fixedIssues"  yaml:"fixed_issues"`
	TotalIssues  int            `json:"totalIssues"  yaml:"total_issues"`
	BySeverity   map[string]int `json:"bySeverity"   yaml:"by_severity"`
	FilesChanged int            `json:"filesChanged" yaml:"files_changed"`
	LinesAdded   int            `json:"linesAdded"   yaml:"lines_added"`
	LinesDeleted int            `json:"linesDeleted" yaml:"lines_deleted"`
}

// StabilityMetrics summarize how settled a file is.
type StabilityMetrics struct {
	ChurnRate      float64 `json:"churnRate"      yaml:"churn_rate"`
	DefectDensity  float64 `json:"defectDensity"  yaml:"defect_density"`
	FixRate        float64 `json:"fixRate"        yaml:"fix_rate"`
	RegressionRate float64 `json:"regressionRate" yaml:"regression_rate"`
	AuthorChanges  int     `json:"authorChanges"  yaml:"author_changes"`
}

// FileHistory is the full temporal profile of one file.
type FileHistory struct {
	FilePath            string               `json:"filePath"            yaml:"file_path"`
	CommitCount         int                  `json:"commitCount"         yaml:"commit_count"`
	ChangeFrequency     float64              `json:"changeFrequency"     yaml:"change_frequency"`
	Authors             []string             `json:"authors"             yaml:"authors"`
	FirstCommit         time.Time            `json:"firstCommit"         yaml:"first_commit"`
	LastCommit          time.Time            `json:"lastCommit"          yaml:"last_commit"`
	ComplexityEvolution []ComplexitySnapshot `json:"complexityEvolution" yaml:"complexity_evolution"`
	IssueHistory        []IssueHistoryEntry  `json:"issueHistory"        yaml:"issue_history"`
	Stability           StabilityMetrics     `json:"stability"           yaml:"stability"`
	RiskScore           float64              `json:"riskScore"           yaml:"risk_score"`
}

// TimelineAction is one step in an issue's lifecycle.
type TimelineAction string

// Timeline actions.
const (
	ActionIntroduced TimelineAction = "introduced"
	ActionModified   TimelineAction = "modified"
	ActionFixed      TimelineAction = "fixed"
	ActionRegressed  TimelineAction = "regressed"
)

// TimelineEntry is one dated lifecycle event of an issue key.
type TimelineEntry struct {
	Date       time.Time      `json:"date"       yaml:"date"`
	CommitHash string         `json:"commitHash" yaml:"commit_hash"`
	Author     string         `json:"author"     yaml:"author"`
	Action     TimelineAction `json:"action"     yaml:"action"`
}

// EvolutionPattern classifies the shape of an issue's timeline.
type EvolutionPattern string

// Evolution patterns.
const (
	PatternRecurring  EvolutionPattern = "recurring"
	PatternRegression EvolutionPattern = "regression"
	PatternFixed      EvolutionPattern = "fixed"
	PatternPersistent EvolutionPattern = "persistent"
	PatternIntroduced EvolutionPattern = "introduced"
)

// IssueEvolution is the lifecycle of one (ruleId, filePath) issue group.
type IssueEvolution struct {
	RuleID          string           `json:"ruleId"          yaml:"rule_id"`
	FilePath        string           `json:"filePath"        yaml:"file_path"`
	IssueCount      int              `json:"issueCount"      yaml:"issue_count"`
	Timeline        []TimelineEntry  `json:"timeline"        yaml:"timeline"`
	Pattern         EvolutionPattern `json:"pattern"         yaml:"pattern"`
	AverageLifespan float64          `json:"averageLifespan" yaml:"average_lifespan"`
}

// PatternType identifies a detected temporal pattern.
type PatternType string

// Temporal pattern types.
const (
	PatternHotspotFormation   PatternType = "hotspot_formation"
	PatternQualityDegradation PatternType = "quality_degradation"
	PatternCyclicRegression   PatternType = "cyclic_regression"
	PatternAuthorCorrelation  PatternType = "author_correlation"
)

// Pattern is one detected temporal pattern.
type Pattern struct {
	ID          string      `json:"id"          yaml:"id"`
	Type        PatternType `json:"type"        yaml:"type"`
	Subject     string      `json:"subject"     yaml:"subject"`
	Description string      `json:"description" yaml:"description"`
	Confidence  float64     `json:"confidence"  yaml:"confidence"`
	Evidence    []string    `json:"evidence"    yaml:"evidence"`
}

// TrendDirection describes the fitted slope of a tracked metric.
type TrendDirection string

// Trend directions.
const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendPoint is one aggregated daily observation.
type TrendPoint struct {
	Date  time.Time `json:"date"  yaml:"date"`
	Value float64   `json:"value" yaml:"value"`
}

// ForecastPoint is one projected future observation.
type ForecastPoint struct {
	Date        time.Time `json:"date"        yaml:"date"`
	Predicted   float64   `json:"predicted"   yaml:"predicted"`
	Confidence  float64   `json:"confidence"  yaml:"confidence"`
	Uncertainty float64   `json:"uncertainty" yaml:"uncertainty"`
}

// Trend is the fitted daily series of one tracked metric.
type Trend struct {
	Metric    string          `json:"metric"    yaml:"metric"`
	Direction TrendDirection  `json:"direction" yaml:"direction"`
	Slope     float64         `json:"slope"     yaml:"slope"`
	Intercept float64         `json:"intercept" yaml:"intercept"`
	RSquared  float64         `json:"rSquared"  yaml:"r_squared"`
	Points    []TrendPoint    `json:"points"    yaml:"points"`
	Forecast  []ForecastPoint `json:"forecast"  yaml:"forecast"`
}

// AuthorMetrics aggregates one author's activity over the history.
type AuthorMetrics struct {
	Author       string    `json:"author"       yaml:"author"`
	Commits      int       `json:"commits"      yaml:"commits"`
	FilesTouched int       `json:"filesTouched" yaml:"files_touched"`
	LinesAdded   int       `json:"linesAdded"   yaml:"lines_added"`
	LinesDeleted int       `json:"linesDeleted" yaml:"lines_deleted"`
	FirstCommit  time.Time `json:"firstCommit"  yaml:"first_commit"`
	LastCommit   time.Time `json:"lastCommit"   yaml:"last_commit"`
}

// RegressionEvent marks a commit after which a file accumulated issues.
type RegressionEvent struct {
	ID          string    `json:"id"          yaml:"id"`
	FilePath    string    `json:"filePath"    yaml:"file_path"`
	CommitHash  string    `json:"commitHash"  yaml:"commit_hash"`
	Date        time.Time `json:"date"        yaml:"date"`
	Author      string    `json:"author"      yaml:"author"`
	Severity    string    `json:"severity"    yaml:"severity"`
	IssueCount  int       `json:"issueCount"  yaml:"issue_count"`
	RiskFactors []string  `json:"riskFactors" yaml:"risk_factors"`
}

// IssuePrediction is the 30-day issue-count forecast.
type IssuePrediction struct {
	HorizonDays    int      `json:"horizonDays"    yaml:"horizon_days"`
	CurrentValue   float64  `json:"currentValue"   yaml:"current_value"`
	PredictedValue float64  `json:"predictedValue" yaml:"predicted_value"`
	Confidence     float64  `json:"confidence"     yaml:"confidence"`
	Recommendation []string `json:"recommendation" yaml:"recommendation"`
}

// HotspotPrediction flags a file at risk of becoming a hotspot.
type HotspotPrediction struct {
	FilePath          string  `json:"filePath"          yaml:"file_path"`
	Risk              float64 `json:"risk"              yaml:"risk"`
	TimeToHotspotDays int     `json:"timeToHotspotDays" yaml:"time_to_hotspot_days"`
}

// Predictions groups forward-looking outputs.
type Predictions struct {
	Issues   *IssuePrediction    `json:"issues"   yaml:"issues"`
	Hotspots []HotspotPrediction `json:"hotspots" yaml:"hotspots"`
}

// Result is the full temporal analysis output.
type Result struct {
	Commits        []gitlog.Commit   `json:"commits"        yaml:"commits"`
	FileHistory    []FileHistory     `json:"fileHistory"    yaml:"file_history"`
	IssueEvolution []IssueEvolution  `json:"issueEvolution" yaml:"issue_evolution"`
	Patterns       []Pattern         `json:"patterns"       yaml:"patterns"`
	Trends         []Trend           `json:"trends"         yaml:"trends"`
	AuthorMetrics  []AuthorMetrics   `json:"authorMetrics"  yaml:"author_metrics"`
	Regressions    []RegressionEvent `json:"regressions"    yaml:"regressions"`
	Predictions    Predictions       `json:"predictions"    yaml:"predictions"`
}
