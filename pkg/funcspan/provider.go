// Package funcspan extracts function boundaries from source files. The
// tree-sitter provider covers the mainstream languages; callers fall back
// to file-level spans for anything else.
package funcspan

import "context"

// Span is one function boundary within a file. Lines are 1-based and
// inclusive. Spans on the same file may nest but never straddle.
type Span struct {
	Name       string   `json:"name"       yaml:"name"`
	FilePath   string   `json:"filePath"   yaml:"file_path"`
	StartLine  int      `json:"startLine"  yaml:"start_line"`
	EndLine    int      `json:"endLine"    yaml:"end_line"`
	Parameters []string `json:"parameters" yaml:"parameters"`
}

// Lines returns the inclusive line count of the span.
func (s Span) Lines() int {
	return s.EndLine - s.StartLine + 1
}

// Contains reports whether the 1-based line falls inside the span.
func (s Span) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Provider yields function boundaries for a source file. Implementations
// return an empty slice for files they cannot parse; the caller then
// treats the whole file as one span.
type Provider interface {
	Functions(ctx context.Context, canonicalPath string, source []byte) ([]Span, error)
}

// FileScope returns the synthetic span covering a whole file, used when no
// function boundaries are available.
func FileScope(canonicalPath string, lineCount int) Span {
	if lineCount < 1 {
		lineCount = 1
	}

	return Span{
		Name:      "file-scope",
		FilePath:  canonicalPath,
		StartLine: 1,
		EndLine:   lineCount,
	}
}
