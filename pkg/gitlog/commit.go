// Package gitlog reads commit history through libgit2 and exposes it as
// plain values the temporal analyses consume.
package gitlog

import (
	"strings"
	"time"
)

// FileChange is the per-file stat block of one commit.
type FileChange struct {
	Path         string `json:"path"         yaml:"path"`
	LinesAdded   int    `json:"linesAdded"   yaml:"lines_added"`
	LinesDeleted int    `json:"linesDeleted" yaml:"lines_deleted"`
}

// Commit is one commit with its per-file line stats against the first
// parent. Initial commits diff against the empty tree.
type Commit struct {
	Hash    string       `json:"hash"    yaml:"hash"`
	Author  string       `json:"author"  yaml:"author"`
	Email   string       `json:"email"   yaml:"email"`
	Date    time.Time    `json:"date"    yaml:"date"`
	Message string       `json:"message" yaml:"message"`
	Files   []FileChange `json:"files"   yaml:"files"`
}

// ShortHash returns the abbreviated commit hash.
func (c *Commit) ShortHash() string {
	const short = 8

	if len(c.Hash) <= short {
		return c.Hash
	}

	return c.Hash[:short]
}

// Touches reports whether the commit changed the given path.
func (c *Commit) Touches(path string) bool {
	for _, file := range c.Files {
		if file.Path == path {
			return true
		}
	}

	return false
}

// Change returns the file change for a path, or nil.
func (c *Commit) Change(path string) *FileChange {
	for i := range c.Files {
		if c.Files[i].Path == path {
			return &c.Files[i]
		}
	}

	return nil
}

// DefaultFixKeywords flag a commit message as a fix or cleanup commit.
var DefaultFixKeywords = []string{"fix", "resolve", "close", "patch", "repair", "correct"}

// MessageMatches reports whether the commit message contains any of the
// keywords, case-insensitively.
func (c *Commit) MessageMatches(keywords []string) bool {
	lower := strings.ToLower(c.Message)

	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}
