package temporal

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

// defaultSampleInterval picks every tenth commit for complexity evolution.
const defaultSampleInterval = 10

// forecastHorizonDays is the standard forecast window.
const forecastHorizonDays = 30

// patternNamespace seeds deterministic pattern and regression identifiers.
var patternNamespace = uuid.MustParse("7d3b2a91-4c08-5f6e-9a27-1e85d0c4b3f2")

// FileAtFunc returns file contents as of a commit. Nil disables
// complexity-evolution sampling.
type FileAtFunc func(ctx context.Context, commitHash, filePath string) ([]byte, error)

// Window bounds the commit range under analysis.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Analyzer runs the temporal analyses. The zero value is not usable;
// construct with NewAnalyzer.
type Analyzer struct {
	fixKeywords    []string
	fileAt         FileAtFunc
	sampleInterval int
	now            func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithFixKeywords overrides the commit-message fix heuristic keywords.
func WithFixKeywords(keywords []string) Option {
	return func(a *Analyzer) {
		if len(keywords) > 0 {
			a.fixKeywords = keywords
		}
	}
}

// WithFileAt enables complexity-evolution sampling from point-in-time
// file contents.
func WithFileAt(fn FileAtFunc) Option {
	return func(a *Analyzer) { a.fileAt = fn }
}

// WithSampleInterval overrides the complexity sampling stride.
func WithSampleInterval(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.sampleInterval = n
		}
	}
}

// WithClock overrides the time source. Tests pin it for stable
// change-frequency denominators.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer returns a temporal analyzer with default settings.
func NewAnalyzer(opts ...Option) *Analyzer {
	analyzer := &Analyzer{
		fixKeywords:    gitlog.DefaultFixKeywords,
		sampleInterval: defaultSampleInterval,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(analyzer)
	}

	return analyzer
}

// Analyze runs all temporal analyses over the commit history and the
// current issue set. With zero commits it returns an empty result and
// skips pattern detection.
func (a *Analyzer) Analyze(ctx context.Context, commits []gitlog.Commit, issues []*finding.Issue, window Window) *Result {
	commits = filterWindow(commits, window)

	result := &Result{Commits: commits}

	if len(commits) == 0 {
		return result
	}

	issuesByFile := groupIssuesByFile(issues)

	result.FileHistory = a.fileHistories(ctx, commits, issuesByFile)
	result.IssueEvolution = a.issueEvolutions(commits, issues)
	result.Patterns = a.detectPatterns(commits, result.FileHistory, result.IssueEvolution)
	result.Trends = a.buildTrends(commits, result.FileHistory, result.IssueEvolution)
	result.AuthorMetrics = authorMetrics(commits)
	result.Regressions = a.regressionEvents(commits, issuesByFile)
	result.Predictions = a.predictions(result.Trends, result.FileHistory, result.Patterns)

	return result
}

// filterWindow keeps commits within [start,end], preserving ascending
// date order.
func filterWindow(commits []gitlog.Commit, window Window) []gitlog.Commit {
	if window.Start == nil && window.End == nil {
		return sortedAscending(commits)
	}

	filtered := make([]gitlog.Commit, 0, len(commits))

	for _, commit := range commits {
		if window.Start != nil && commit.Date.Before(*window.Start) {
			continue
		}

		if window.End != nil && commit.Date.After(*window.End) {
			continue
		}

		filtered = append(filtered, commit)
	}

	return sortedAscending(filtered)
}

func sortedAscending(commits []gitlog.Commit) []gitlog.Commit {
	sorted := make([]gitlog.Commit, len(commits))
	copy(sorted, commits)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}

		return sorted[i].Hash < sorted[j].Hash
	})

	return sorted
}

// groupIssuesByFile indexes issues by canonical path. Issues without a
// resolved entity are excluded from temporal attribution.
func groupIssuesByFile(issues []*finding.Issue) map[string][]*finding.Issue {
	grouped := make(map[string][]*finding.Issue)

	for _, issue := range issues {
		if issue.Entity == nil {
			continue
		}

		grouped[issue.Path()] = append(grouped[issue.Path()], issue)
	}

	return grouped
}

func (a *Analyzer) isFixCommit(commit *gitlog.Commit) bool {
	return commit.MessageMatches(a.fixKeywords)
}

func patternID(kind PatternType, subject string) string {
	return uuid.NewSHA1(patternNamespace, []byte(string(kind)+":"+subject)).String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
