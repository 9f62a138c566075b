package temporal

import (
	"strings"

	"github.com/google/uuid"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
)

// Regression event thresholds.
const (
	regressionMinIssues    = 2
	largeAdditionLines     = 50
	significantRemovalQty  = 20
	regressionNamespaceKey = "regression"
)

// regressionEvents flags files whose newest change is followed by more
// than two issues of at least medium severity. The event attaches to the
// last commit touching the file, the change after which the current
// issue set is observed.
func (a *Analyzer) regressionEvents(commits []gitlog.Commit, issuesByFile map[string][]*finding.Issue) []RegressionEvent {
	touching := commitsByFile(commits)

	var events []RegressionEvent

	for _, filePath := range sortedKeys(touching) {
		issues := issuesByFile[filePath]
		if len(issues) <= regressionMinIssues {
			continue
		}

		if !anyAtLeastMedium(issues) {
			continue
		}

		fileCommits := touching[filePath]
		last := fileCommits[len(fileCommits)-1]

		events = append(events, RegressionEvent{
			ID:          uuid.NewSHA1(patternNamespace, []byte(regressionNamespaceKey+":"+filePath+":"+last.Hash)).String(),
			FilePath:    filePath,
			CommitHash:  last.Hash,
			Date:        last.Date,
			Author:      last.Author,
			Severity:    regressionSeverity(issues),
			IssueCount:  len(issues),
			RiskFactors: riskFactors(last, filePath),
		})
	}

	return events
}

func anyAtLeastMedium(issues []*finding.Issue) bool {
	for _, issue := range issues {
		if issue.Severity.Num() >= finding.SeverityMedium.Num() {
			return true
		}
	}

	return false
}

func regressionSeverity(issues []*finding.Issue) string {
	var hasHigh bool

	for _, issue := range issues {
		switch issue.Severity {
		case finding.SeverityCritical:
			return string(finding.SeverityHigh)
		case finding.SeverityHigh:
			hasHigh = true
		case finding.SeverityMedium, finding.SeverityLow, finding.SeverityInfo:
		}
	}

	if hasHigh {
		return string(finding.SeverityMedium)
	}

	return string(finding.SeverityLow)
}

// riskFactors names the commit characteristics associated with the
// regression.
func riskFactors(commit *gitlog.Commit, filePath string) []string {
	var factors []string

	if change := commit.Change(filePath); change != nil {
		if change.LinesAdded > largeAdditionLines {
			factors = append(factors, "Large code addition")
		}

		if change.LinesDeleted > significantRemovalQty {
			factors = append(factors, "Significant code removal")
		}
	}

	message := strings.ToLower(commit.Message)

	if strings.Contains(message, "refactor") {
		factors = append(factors, "Refactoring")
	}

	if strings.Contains(message, "fix") {
		factors = append(factors, "Bug fix attempt")
	}

	return factors
}
