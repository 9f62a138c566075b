package temporal

import "github.com/crosslint-tech/crosslint/pkg/gitlog"

// authorMetrics aggregates per-author activity over the full history,
// sorted by author name.
func authorMetrics(commits []gitlog.Commit) []AuthorMetrics {
	byAuthor := make(map[string]*AuthorMetrics)
	filesByAuthor := make(map[string]map[string]struct{})

	for i := range commits {
		commit := &commits[i]
		if commit.Author == "" {
			continue
		}

		metrics, ok := byAuthor[commit.Author]
		if !ok {
			metrics = &AuthorMetrics{
				Author:      commit.Author,
				FirstCommit: commit.Date,
				LastCommit:  commit.Date,
			}
			byAuthor[commit.Author] = metrics
			filesByAuthor[commit.Author] = make(map[string]struct{})
		}

		metrics.Commits++

		if commit.Date.Before(metrics.FirstCommit) {
			metrics.FirstCommit = commit.Date
		}

		if commit.Date.After(metrics.LastCommit) {
			metrics.LastCommit = commit.Date
		}

		for _, file := range commit.Files {
			metrics.LinesAdded += file.LinesAdded
			metrics.LinesDeleted += file.LinesDeleted
			filesByAuthor[commit.Author][file.Path] = struct{}{}
		}
	}

	result := make([]AuthorMetrics, 0, len(byAuthor))

	for _, author := range sortedKeys(byAuthor) {
		metrics := byAuthor[author]
		metrics.FilesTouched = len(filesByAuthor[author])
		result = append(result, *metrics)
	}

	return result
}
