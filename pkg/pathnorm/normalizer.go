// Package pathnorm converts tool-native file identifiers into canonical
// project-relative paths. Every supported tool gets an explicit rule;
// unknown tools receive generic handling at reduced confidence.
package pathnorm

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Confidence levels per normalization rule. Known-format inputs score
// high; fallbacks that guess at project structure score low. These are
// tuning constants, not measurements.
const (
	ConfidenceExact       = 1.0
	ConfidenceToolRule    = 0.95
	ConfidenceRelativized = 0.9
	ConfidenceGeneric     = 0.8
	ConfidenceClassGuess  = 0.7
	ConfidenceRootMarker  = 0.6
	ConfidenceBasename    = 0.3
)

// Tool names with dedicated normalization rules.
const (
	ToolSonarQube = "sonarqube"
	ToolSemgrep   = "semgrep"
	ToolCodeQL    = "codeql"
	ToolCheckmarx = "checkmarx"
	ToolVeracode  = "veracode"
	ToolSnyk      = "snyk"
)

// ErrEmptyPath is returned when the tool path is empty or whitespace.
var ErrEmptyPath = errors.New("empty tool path")

// rootMarkers are directory names that anchor a project-relative suffix
// when an absolute path escapes the project root.
var rootMarkers = map[string]struct{}{
	"src":        {},
	"lib":        {},
	"app":        {},
	"components": {},
}

// Result is the outcome of normalizing one tool-native path.
type Result struct {
	CanonicalPath string  `json:"canonicalPath,omitempty" yaml:"canonical_path,omitempty"`
	Confidence    float64 `json:"confidence"              yaml:"confidence"`
	Normalized    bool    `json:"normalized"              yaml:"normalized"`
	Err           error   `json:"-"                       yaml:"-"`
}

// Normalizer converts tool-native paths into canonical project-relative
// paths. The zero value is not usable; construct with New.
type Normalizer struct {
	projectRoot string
}

// New creates a normalizer anchored at the given project root.
// The root is cleaned but not required to exist on disk.
func New(projectRoot string) *Normalizer {
	return &Normalizer{projectRoot: filepath.Clean(projectRoot)}
}

// Normalize converts one tool-native path into a canonical path.
// A failed normalization returns Normalized=false with confidence 0; the
// caller keeps the issue but excludes it from dedup and clustering.
func (n *Normalizer) Normalize(toolPath, toolName string) Result {
	trimmed := strings.TrimSpace(toolPath)
	if trimmed == "" {
		return Result{Err: ErrEmptyPath}
	}

	// Data-flow path objects keep only the source location.
	if idx := strings.Index(trimmed, "->"); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
		if trimmed == "" {
			return Result{Err: fmt.Errorf("%w: data-flow path without source", ErrEmptyPath)}
		}
	}

	switch strings.ToLower(toolName) {
	case ToolSonarQube:
		return n.normalizeSonarQube(trimmed)
	case ToolSemgrep, ToolCodeQL, ToolSnyk:
		// These tools emit plain relative or absolute file paths.
		return n.normalizePlain(trimmed, ConfidenceToolRule)
	case ToolCheckmarx, ToolVeracode:
		return n.normalizeClassOrPlain(trimmed)
	default:
		return n.normalizePlain(trimmed, ConfidenceGeneric)
	}
}

// normalizeSonarQube handles component keys of the form "<projectKey>:<path>".
func (n *Normalizer) normalizeSonarQube(toolPath string) Result {
	if idx := strings.Index(toolPath, ":"); idx >= 0 && !isWindowsDrive(toolPath) {
		return n.finish(toolPath[idx+1:], ConfidenceToolRule)
	}

	return n.normalizePlain(toolPath, ConfidenceToolRule)
}

// normalizeClassOrPlain handles Java-style dotted class names in addition
// to plain paths. "com.example.Foo" maps to "src/main/java/com/example/Foo.java".
func (n *Normalizer) normalizeClassOrPlain(toolPath string) Result {
	if isDottedClassName(toolPath) {
		classPath := "src/main/java/" + strings.ReplaceAll(toolPath, ".", "/") + ".java"

		return n.finish(classPath, ConfidenceClassGuess)
	}

	return n.normalizePlain(toolPath, ConfidenceToolRule)
}

// normalizePlain handles relative paths, absolute paths, and separator or
// prefix noise at the given base confidence.
func (n *Normalizer) normalizePlain(toolPath string, confidence float64) Result {
	cleaned := strings.ReplaceAll(toolPath, `\`, "/")
	cleaned = strings.TrimSpace(cleaned)

	if isWindowsDrive(cleaned) {
		cleaned = cleaned[2:]
	}

	if path.IsAbs(cleaned) {
		return n.normalizeAbsolute(cleaned, confidence)
	}

	cleaned = strings.TrimPrefix(cleaned, "./")

	if isDottedClassName(cleaned) {
		classPath := "src/main/java/" + strings.ReplaceAll(cleaned, ".", "/") + ".java"

		return n.finish(classPath, ConfidenceClassGuess)
	}

	return n.finish(cleaned, confidence)
}

// normalizeAbsolute relativizes an absolute path against the project root.
// Paths escaping the root fall back to the first recognized root marker,
// then to the basename.
func (n *Normalizer) normalizeAbsolute(absPath string, confidence float64) Result {
	root := filepath.ToSlash(n.projectRoot)

	rel, err := filepath.Rel(root, absPath)
	if err == nil {
		rel = filepath.ToSlash(rel)
		if rel != ".." && !strings.HasPrefix(rel, "../") && rel != "." {
			return n.finish(rel, min(confidence, ConfidenceRelativized))
		}
	}

	components := strings.Split(strings.Trim(absPath, "/"), "/")
	for i, component := range components {
		if _, ok := rootMarkers[component]; ok {
			return n.finish(strings.Join(components[i:], "/"), ConfidenceRootMarker)
		}
	}

	return n.finish(components[len(components)-1], ConfidenceBasename)
}

// finish cleans the candidate and enforces the canonical-path
// post-conditions: forward slashes, no "..", no leading "/", no "//",
// trimmed, non-empty.
func (n *Normalizer) finish(candidate string, confidence float64) Result {
	cleaned := path.Clean(strings.TrimSpace(candidate))
	cleaned = strings.TrimPrefix(cleaned, "/")

	if cleaned == "" || cleaned == "." {
		return Result{Err: fmt.Errorf("%w: path cleaned to nothing", ErrEmptyPath)}
	}

	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return Result{Err: fmt.Errorf("path escapes project root: %q", candidate)} //nolint:err113 // carries the offending path.
	}

	return Result{
		CanonicalPath: cleaned,
		Confidence:    confidence,
		Normalized:    true,
	}
}

// isWindowsDrive reports whether the path starts with a drive letter
// prefix such as "C:".
func isWindowsDrive(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}

	c := p[0]

	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isDottedClassName reports whether the identifier looks like a Java
// class name: dots, no path separators, no file extension.
func isDottedClassName(s string) bool {
	if !strings.Contains(s, ".") {
		return false
	}

	if strings.ContainsAny(s, "/\\") {
		return false
	}

	// A known file extension means a bare filename, not a class name.
	ext := strings.ToLower(path.Ext(s))
	switch ext {
	case ".java", ".js", ".jsx", ".ts", ".tsx", ".go", ".py", ".rb", ".cs", ".c", ".cpp", ".h", ".php", ".kt":
		return false
	}

	return true
}
