// Package modgraph discovers project source files, extracts their import
// relationships, and builds the directed module graph with coupling
// metrics.
package modgraph

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/crosslint-tech/crosslint/pkg/textutil"
)

// DefaultMaxFiles caps discovery so a runaway monorepo cannot exhaust the
// pipeline.
const DefaultMaxFiles = 1000

// defaultIgnoreDirs are directory names always skipped during the walk.
var defaultIgnoreDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"dist":         {},
	"build":        {},
	".next":        {},
}

// sourceExtensions are the recognized source file extensions.
var sourceExtensions = map[string]struct{}{
	".js":   {},
	".jsx":  {},
	".mjs":  {},
	".cjs":  {},
	".ts":   {},
	".tsx":  {},
	".go":   {},
	".py":   {},
	".java": {},
	".rb":   {},
	".php":  {},
	".cs":   {},
}

// SourceFile is one discovered file with its contents.
type SourceFile struct {
	CanonicalPath string
	Size          int
	Content       []byte
}

// Scanner walks the project root collecting source files.
type Scanner struct {
	projectRoot string
	ignoreDirs  map[string]struct{}
	maxFiles    int
}

// NewScanner creates a scanner for the given root. Extra ignore names add
// to the built-in list; maxFiles <= 0 uses DefaultMaxFiles.
func NewScanner(projectRoot string, extraIgnores []string, maxFiles int) *Scanner {
	ignores := make(map[string]struct{}, len(defaultIgnoreDirs)+len(extraIgnores))
	for name := range defaultIgnoreDirs {
		ignores[name] = struct{}{}
	}

	for _, name := range extraIgnores {
		ignores[name] = struct{}{}
	}

	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	return &Scanner{projectRoot: projectRoot, ignoreDirs: ignores, maxFiles: maxFiles}
}

// Scan walks the project and returns the discovered source files sorted by
// canonical path. The walk stops silently at the max-files cap.
func (s *Scanner) Scan() ([]SourceFile, error) {
	var files []SourceFile

	err := filepath.WalkDir(s.projectRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			if _, skip := s.ignoreDirs[entry.Name()]; skip && path != s.projectRoot {
				return filepath.SkipDir
			}

			return nil
		}

		if len(files) >= s.maxFiles {
			return filepath.SkipAll
		}

		if _, ok := sourceExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		rel, relErr := filepath.Rel(s.projectRoot, path)
		if relErr != nil {
			return relErr
		}

		canonical := filepath.ToSlash(rel)
		if enry.IsVendor(canonical) || enry.IsDotFile(canonical) {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			// Unreadable files silently drop out of the graph.
			return nil
		}

		if textutil.IsBinary(content) || enry.IsGenerated(canonical, content) {
			return nil
		}

		files = append(files, SourceFile{
			CanonicalPath: canonical,
			Size:          len(content),
			Content:       content,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("modgraph: scan %s: %w", s.projectRoot, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].CanonicalPath < files[j].CanonicalPath })

	return files, nil
}
