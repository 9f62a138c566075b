package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/crosslint-tech/crosslint/pkg/adapters"
	"github.com/crosslint-tech/crosslint/pkg/funcspan"
)

// NewCapabilitiesCommand creates the capabilities command, which lists
// the registered adapters and analysis surfaces of this build.
func NewCapabilitiesCommand() *cobra.Command {
	var repoPath string

	cobraCmd := &cobra.Command{
		Use:   "capabilities",
		Short: "List tool adapters, span languages, and git availability",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCapabilities(repoPath)
		},
	}

	cobraCmd.Flags().StringVar(&repoPath, "repo", ".", "repository path probed for git availability")

	return cobraCmd
}

func runCapabilities(repoPath string) error {
	fmt.Fprintln(os.Stdout, "Tool adapters:")

	for _, name := range adapters.NewRegistry().Names() {
		fmt.Fprintf(os.Stdout, "  - %s\n", name)
	}

	languages := funcspan.NewTreeSitterProvider().Languages()
	sort.Strings(languages)

	fmt.Fprintln(os.Stdout, "Function span languages:")

	for _, language := range languages {
		fmt.Fprintf(os.Stdout, "  - %s\n", language)
	}

	fmt.Fprintln(os.Stdout, "Report formats: json, yaml (.lz4 compression by suffix)")

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		fmt.Fprintf(os.Stdout, "Git history: available (%s)\n", repoPath)
	} else {
		fmt.Fprintf(os.Stdout, "Git history: no repository at %s\n", repoPath)
	}

	return nil
}
