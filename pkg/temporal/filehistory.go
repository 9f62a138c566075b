package temporal

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
	"github.com/crosslint-tech/crosslint/pkg/modgraph"
	"github.com/crosslint-tech/crosslint/pkg/textutil"
)

// Risk score factor weights.
const (
	riskChurnWeight      = 0.3
	riskDefectWeight     = 0.4
	riskRegressionWeight = 0.3
)

var (
	functionPattern = regexp.MustCompile(`(?m)\bfunction\s+\w+|\bdef\s+\w+|^func\s|\w+\s*\([^)]*\)\s*{`)
	classPattern    = regexp.MustCompile(`(?m)\bclass\s+\w+|^type\s+\w+\s+struct\b`)
)

// fileHistories builds the temporal profile of every file touched in the
// history, sorted by path.
func (a *Analyzer) fileHistories(ctx context.Context, commits []gitlog.Commit, issuesByFile map[string][]*finding.Issue) []FileHistory {
	touching := commitsByFile(commits)

	histories := make([]FileHistory, 0, len(touching))

	for _, filePath := range sortedKeys(touching) {
		fileCommits := touching[filePath]

		history := FileHistory{
			FilePath:    filePath,
			CommitCount: len(fileCommits),
			FirstCommit: fileCommits[0].Date,
			LastCommit:  fileCommits[len(fileCommits)-1].Date,
		}

		history.ChangeFrequency = changeFrequency(len(fileCommits), history.LastCommit, a.now())
		history.Authors = distinctAuthors(fileCommits)
		history.ComplexityEvolution = a.complexityEvolution(ctx, filePath, fileCommits)
		history.IssueHistory = a.issueHistory(filePath, fileCommits, issuesByFile[filePath])
		history.Stability = a.stabilityMetrics(&history, issuesByFile[filePath])
		history.RiskScore = riskChurnWeight*history.Stability.ChurnRate +
			riskDefectWeight*history.Stability.DefectDensity +
			riskRegressionWeight*history.Stability.RegressionRate

		histories = append(histories, history)
	}

	return histories
}

// commitsByFile maps each touched path to the ascending commit list that
// changed it.
func commitsByFile(commits []gitlog.Commit) map[string][]*gitlog.Commit {
	touching := make(map[string][]*gitlog.Commit)

	for i := range commits {
		for _, file := range commits[i].Files {
			touching[file.Path] = append(touching[file.Path], &commits[i])
		}
	}

	return touching
}

// changeFrequency is commits per day since the last change.
func changeFrequency(commitCount int, lastCommit, now time.Time) float64 {
	days := int(now.Sub(lastCommit).Hours() / 24)

	return float64(commitCount) / float64(max(1, days))
}

func distinctAuthors(commits []*gitlog.Commit) []string {
	seen := make(map[string]struct{})

	var authors []string

	for _, commit := range commits {
		if _, ok := seen[commit.Author]; ok {
			continue
		}

		seen[commit.Author] = struct{}{}
		authors = append(authors, commit.Author)
	}

	sort.Strings(authors)

	return authors
}

// complexityEvolution samples the file contents at every Nth commit and
// measures size and structure. Disabled when no FileAt source is wired.
func (a *Analyzer) complexityEvolution(ctx context.Context, filePath string, commits []*gitlog.Commit) []ComplexitySnapshot {
	if a.fileAt == nil {
		return nil
	}

	var snapshots []ComplexitySnapshot

	for i, commit := range commits {
		if i%a.sampleInterval != 0 && i != len(commits)-1 {
			continue
		}

		content, err := a.fileAt(ctx, commit.Hash, filePath)
		if err != nil {
			continue // File may not exist at this commit (renames, deletions).
		}

		snapshots = append(snapshots, ComplexitySnapshot{
			Date:          commit.Date,
			CommitHash:    commit.Hash,
			Lines:         textutil.CountLines(content),
			Cyclomatic:    modgraph.CountComplexity(content),
			FunctionCount: len(functionPattern.FindAll(content, -1)),
			ClassCount:    len(classPattern.FindAll(content, -1)),
		})
	}

	return snapshots
}

// issueHistory partitions the file's lifetime into commit windows and
// attributes the current issues to them. Fix-keyword commits bin issues
// as fixed; the newest non-fix commit carries the surviving issues as
// new. The attribution is a heuristic over commit messages, not ground
// truth.
func (a *Analyzer) issueHistory(filePath string, commits []*gitlog.Commit, issues []*finding.Issue) []IssueHistoryEntry {
	entries := make([]IssueHistoryEntry, 0, len(commits))

	lastIntroduction := -1

	for i, commit := range commits {
		if !a.isFixCommit(commit) {
			lastIntroduction = i
		}

		entry := IssueHistoryEntry{
			Date:         commit.Date,
			CommitHash:   commit.Hash,
			Author:       commit.Author,
			BySeverity:   make(map[string]int),
			FilesChanged: len(commit.Files),
		}

		if change := commit.Change(filePath); change != nil {
			entry.LinesAdded = change.LinesAdded
			entry.LinesDeleted = change.LinesDeleted
		}

		entries = append(entries, entry)
	}

	if len(issues) > 0 && lastIntroduction >= 0 {
		entries[lastIntroduction].NewIssues = len(issues)

		for _, issue := range issues {
			entries[lastIntroduction].BySeverity[string(issue.Severity)]++
		}
	}

	// Fix commits after the attribution point claim the issues that no
	// longer survive; with a current-state snapshot that count is zero,
	// but earlier fix commits still mark fix-dominant windows.
	running := 0
	for i := range entries {
		running += entries[i].NewIssues - entries[i].FixedIssues
		if running < 0 {
			running = 0
		}

		entries[i].TotalIssues = running
	}

	return entries
}

func (a *Analyzer) stabilityMetrics(history *FileHistory, issues []*finding.Issue) StabilityMetrics {
	metrics := StabilityMetrics{
		ChurnRate:     history.ChangeFrequency,
		AuthorChanges: len(history.Authors),
	}

	metrics.DefectDensity = float64(len(issues)) / float64(max(1, history.CommitCount))

	var totalNew, totalFixed int

	for _, entry := range history.IssueHistory {
		totalNew += entry.NewIssues
		totalFixed += entry.FixedIssues
	}

	metrics.FixRate = float64(totalFixed) / float64(max(1, totalNew))
	metrics.RegressionRate = regressionRate(history.IssueHistory)

	return metrics
}

// regressionRate is the fraction of windows where critical or high
// counts rose again after a previous drop.
func regressionRate(entries []IssueHistoryEntry) float64 {
	if len(entries) < 2 {
		return 0
	}

	severeCount := func(entry IssueHistoryEntry) int {
		return entry.BySeverity[string(finding.SeverityCritical)] + entry.BySeverity[string(finding.SeverityHigh)]
	}

	var regressed int

	dropped := false
	previous := severeCount(entries[0])

	for _, entry := range entries[1:] {
		current := severeCount(entry)

		if current < previous {
			dropped = true
		} else if current > previous && dropped {
			regressed++
			dropped = false
		}

		previous = current
	}

	return float64(regressed) / float64(len(entries)-1)
}
