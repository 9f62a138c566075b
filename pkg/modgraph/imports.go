package modgraph

import (
	"regexp"
	"strings"
)

// DependencyType distinguishes how a module reference is expressed.
type DependencyType string

// Dependency types.
const (
	DepImport  DependencyType = "import"
	DepRequire DependencyType = "require"
	DepDynamic DependencyType = "dynamic"
)

// ImportRef is one extracted import statement before resolution.
type ImportRef struct {
	Specifier string
	Type      DependencyType
	Symbols   []string
	External  bool
}

// ExportRef is one extracted export with enough typing to judge
// abstractness: interfaces and type aliases count as abstract, as do
// classes named like abstract bases.
type ExportRef struct {
	Name     string
	Abstract bool
}

// Import extraction patterns, per mechanism.
var (
	// import defaultExport, { a, b } from "mod"; import * as ns from "mod".
	esImportPattern = regexp.MustCompile(`(?m)^\s*import\s+(?:([\w*{}\s,$]+?)\s+from\s+)?["']([^"']+)["']`)

	// Dynamic import("mod").
	dynamicImportPattern = regexp.MustCompile(`import\s*\(\s*["']([^"']+)["']\s*\)`)

	// const x = require("mod").
	requirePattern = regexp.MustCompile(`require\s*\(\s*["']([^"']+)["']\s*\)`)

	// export [default] [abstract] class|function|interface|type|const|let|var Name.
	exportPattern = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(abstract\s+)?(class|function|interface|type|const|let|var|enum)\s+(\w+)`)

	// Python "import a.b" and "from a.b import c".
	pythonImportPattern = regexp.MustCompile(`(?m)^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)

	// Go import blocks and single imports.
	goImportPattern = regexp.MustCompile(`(?m)^\s*(?:import\s+)?(?:\w+\s+)?"([^"]+)"`)
)

// complexityPattern counts control-flow branches for the cyclomatic proxy.
var complexityPattern = regexp.MustCompile(`\bif\b|\belse\b|\bfor\b|\bwhile\b|\bswitch\b|\bcatch\b|&&|\|\|`)

// ExtractImports pulls all import references from a source file. The
// specifier is external iff it does not begin with "." or "/".
func ExtractImports(canonicalPath string, content []byte) []ImportRef {
	source := string(content)

	switch ext(canonicalPath) {
	case ".py":
		return extractPythonImports(source)
	case ".go":
		return extractGoImports(source)
	default:
		return extractJSImports(source)
	}
}

func extractJSImports(source string) []ImportRef {
	var refs []ImportRef

	for _, match := range esImportPattern.FindAllStringSubmatch(source, -1) {
		refs = append(refs, ImportRef{
			Specifier: match[2],
			Type:      DepImport,
			Symbols:   parseImportClause(match[1]),
			External:  isExternal(match[2]),
		})
	}

	for _, match := range dynamicImportPattern.FindAllStringSubmatch(source, -1) {
		refs = append(refs, ImportRef{
			Specifier: match[1],
			Type:      DepDynamic,
			External:  isExternal(match[1]),
		})
	}

	for _, match := range requirePattern.FindAllStringSubmatch(source, -1) {
		refs = append(refs, ImportRef{
			Specifier: match[1],
			Type:      DepRequire,
			External:  isExternal(match[1]),
		})
	}

	return refs
}

func extractPythonImports(source string) []ImportRef {
	var refs []ImportRef

	for _, match := range pythonImportPattern.FindAllStringSubmatch(source, -1) {
		module := match[1]
		if module == "" {
			module = match[2]
		}

		// Relative python imports start with dots already; absolute ones
		// are treated as external unless they resolve within the project.
		specifier := strings.ReplaceAll(module, ".", "/")
		refs = append(refs, ImportRef{
			Specifier: specifier,
			Type:      DepImport,
			External:  isExternal(specifier),
		})
	}

	return refs
}

func extractGoImports(source string) []ImportRef {
	// Only the import section is scanned to avoid matching string literals.
	importSection := source
	if idx := strings.Index(source, "\nfunc "); idx > 0 {
		importSection = source[:idx]
	}

	var refs []ImportRef

	for _, match := range goImportPattern.FindAllStringSubmatch(importSection, -1) {
		refs = append(refs, ImportRef{
			Specifier: match[1],
			Type:      DepImport,
			External:  isExternal(match[1]),
		})
	}

	return refs
}

// ExtractExports pulls exported symbols with abstractness flags.
func ExtractExports(content []byte) []ExportRef {
	var refs []ExportRef

	for _, match := range exportPattern.FindAllStringSubmatch(string(content), -1) {
		abstractKeyword := match[1] != ""
		kind := match[2]
		name := match[3]

		abstract := abstractKeyword ||
			kind == "interface" || kind == "type" ||
			(kind == "class" && strings.Contains(name, "Abstract"))

		refs = append(refs, ExportRef{Name: name, Abstract: abstract})
	}

	return refs
}

// CountComplexity approximates cyclomatic complexity as one plus the
// number of control-flow keywords and short-circuit operators.
func CountComplexity(content []byte) int {
	return 1 + len(complexityPattern.FindAllIndex(content, -1))
}

func parseImportClause(clause string) []string {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}

	cleaned := strings.NewReplacer("{", " ", "}", " ", "*", " ").Replace(clause)

	var symbols []string

	for _, token := range strings.Split(cleaned, ",") {
		// "name as alias" keeps the original name.
		fields := strings.Fields(token)
		if len(fields) > 0 && fields[0] != "as" {
			symbols = append(symbols, fields[0])
		}
	}

	return symbols
}

func isExternal(specifier string) bool {
	return !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/")
}

func ext(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return strings.ToLower(path[idx:])
	}

	return ""
}
