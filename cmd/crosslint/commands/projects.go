package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/crosslint-tech/crosslint/pkg/report"
)

// reportExtensions are the file suffixes scanned by the projects command.
var reportExtensions = []string{".json", ".yaml", ".yml", ".json.lz4", ".yaml.lz4", ".yml.lz4"}

// NewProjectsCommand creates the projects command, which lists analyzed
// projects found in saved reports under a directory.
func NewProjectsCommand() *cobra.Command {
	var dir string

	cobraCmd := &cobra.Command{
		Use:   "projects",
		Short: "List analyzed projects from saved reports",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runProjects(dir)
		},
	}

	cobraCmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory scanned for report files")

	return cobraCmd
}

func runProjects(dir string) error {
	var paths []string

	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		if isReportPath(path) {
			paths = append(paths, path)
		}

		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("scan %s: %w", dir, walkErr)
	}

	sort.Strings(paths)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Project", "Analyzed", "Issues", "Groups", "Errors", "File"})

	found := 0

	for _, path := range paths {
		rep, err := report.ReadFile(path)
		if err != nil || rep.Source != report.Source {
			// Not one of ours; skip quietly.
			continue
		}

		tbl.AppendRow(table.Row{
			rep.Project.Key,
			humanize.Time(rep.AnalyzedAt),
			rep.Project.Metrics.TotalIssues,
			rep.Project.Metrics.DuplicateGroups,
			len(rep.Errors),
			path,
		})

		found++
	}

	if found == 0 {
		fmt.Fprintf(os.Stdout, "No crosslint reports found under %s.\n", dir)

		return nil
	}

	tbl.Render()

	return nil
}

func isReportPath(path string) bool {
	lower := strings.ToLower(path)

	for _, ext := range reportExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}
