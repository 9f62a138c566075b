package modgraph

import (
	"math"
	"path"
	"sort"
	"strings"
)

// Coupling holds the afferent/efferent coupling metrics of one module.
type Coupling struct {
	Ca           int     `json:"ca"           yaml:"ca"`
	Ce           int     `json:"ce"           yaml:"ce"`
	Instability  float64 `json:"instability"  yaml:"instability"`
	Abstractness float64 `json:"abstractness" yaml:"abstractness"`
	Distance     float64 `json:"distance"     yaml:"distance"`
}

// Module is one source file node in the dependency graph.
type Module struct {
	FilePath     string   `json:"filePath"     yaml:"file_path"`
	Size         int      `json:"size"         yaml:"size"`
	Imports      []string `json:"imports"      yaml:"imports"`
	Exports      []string `json:"exports"      yaml:"exports"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
	Dependents   []string `json:"dependents"   yaml:"dependents"`
	Complexity   int      `json:"complexity"   yaml:"complexity"`
	Coupling     Coupling `json:"coupling"     yaml:"coupling"`
}

// Edge is one resolved dependency between two modules, or from a module
// to an external package.
type Edge struct {
	From            string         `json:"from"            yaml:"from"`
	To              string         `json:"to"              yaml:"to"`
	Type            DependencyType `json:"type"            yaml:"type"`
	ImportedSymbols []string       `json:"importedSymbols" yaml:"imported_symbols"`
	IsExternal      bool           `json:"isExternal"      yaml:"is_external"`
}

// Graph is the full module-dependency graph.
type Graph struct {
	Modules []*Module `json:"modules"      yaml:"modules"`
	Edges   []Edge    `json:"dependencies" yaml:"dependencies"`

	byPath map[string]*Module
}

// Module returns the module for a canonical path, or nil.
func (g *Graph) Module(canonicalPath string) *Module {
	return g.byPath[canonicalPath]
}

// InternalEdges returns only the edges between project modules.
func (g *Graph) InternalEdges() []Edge {
	var internal []Edge

	for _, edge := range g.Edges {
		if !edge.IsExternal {
			internal = append(internal, edge)
		}
	}

	return internal
}

// resolveExtensions are tried, in order, when a relative specifier names
// no file directly.
var resolveExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".py", ".go", ".java"}

// Build constructs the module graph from scanned files: extract imports
// and exports, resolve relative specifiers, build edges, reverse-populate
// dependents, then compute coupling.
func Build(files []SourceFile) *Graph {
	graph := &Graph{byPath: make(map[string]*Module, len(files))}
	known := make(map[string]struct{}, len(files))

	for _, file := range files {
		known[file.CanonicalPath] = struct{}{}
	}

	for _, file := range files {
		module := &Module{
			FilePath:   file.CanonicalPath,
			Size:       file.Size,
			Complexity: CountComplexity(file.Content),
		}

		exports := ExtractExports(file.Content)

		var abstractCount int

		for _, export := range exports {
			module.Exports = append(module.Exports, export.Name)

			if export.Abstract {
				abstractCount++
			}
		}

		if len(exports) > 0 {
			module.Coupling.Abstractness = float64(abstractCount) / float64(len(exports))
		}

		for _, ref := range ExtractImports(file.CanonicalPath, file.Content) {
			module.Imports = append(module.Imports, ref.Specifier)

			edge := Edge{
				From:            file.CanonicalPath,
				Type:            ref.Type,
				ImportedSymbols: ref.Symbols,
				IsExternal:      ref.External,
			}

			if ref.External {
				edge.To = ref.Specifier
				graph.Edges = append(graph.Edges, edge)

				continue
			}

			target, ok := resolveRelative(file.CanonicalPath, ref.Specifier, known)
			if !ok {
				continue
			}

			edge.To = target
			graph.Edges = append(graph.Edges, edge)
			module.Dependencies = append(module.Dependencies, target)
		}

		module.Dependencies = dedupSorted(module.Dependencies)

		graph.Modules = append(graph.Modules, module)
		graph.byPath[file.CanonicalPath] = module
	}

	// Reverse pass: dependents mirror dependencies across the module set.
	for _, module := range graph.Modules {
		for _, target := range module.Dependencies {
			if dep := graph.byPath[target]; dep != nil {
				dep.Dependents = append(dep.Dependents, module.FilePath)
			}
		}
	}

	for _, module := range graph.Modules {
		module.Dependents = dedupSorted(module.Dependents)
		computeCoupling(module)
	}

	return graph
}

// resolveRelative resolves a relative import specifier against the
// importing file's directory, probing known files with extension and
// index-file fallbacks.
func resolveRelative(fromPath, specifier string, known map[string]struct{}) (string, bool) {
	base := path.Dir(fromPath)

	joined := path.Clean(path.Join(base, specifier))
	if strings.HasPrefix(specifier, "/") {
		joined = path.Clean(strings.TrimPrefix(specifier, "/"))
	}

	if strings.HasPrefix(joined, "../") {
		return "", false
	}

	if _, ok := known[joined]; ok {
		return joined, true
	}

	for _, extension := range resolveExtensions {
		if _, ok := known[joined+extension]; ok {
			return joined + extension, true
		}
	}

	for _, extension := range resolveExtensions {
		indexPath := joined + "/index" + extension
		if _, ok := known[indexPath]; ok {
			return indexPath, true
		}
	}

	return "", false
}

// computeCoupling fills Ca, Ce, instability, and distance. Abstractness is
// already set from the export pass.
func computeCoupling(module *Module) {
	module.Coupling.Ca = len(module.Dependents)
	module.Coupling.Ce = len(module.Dependencies)

	if total := module.Coupling.Ca + module.Coupling.Ce; total > 0 {
		module.Coupling.Instability = float64(module.Coupling.Ce) / float64(total)
	}

	module.Coupling.Distance = math.Abs(module.Coupling.Abstractness + module.Coupling.Instability - 1)
}

func dedupSorted(items []string) []string {
	if len(items) == 0 {
		return items
	}

	sort.Strings(items)

	deduped := items[:1]

	for _, item := range items[1:] {
		if item != deduped[len(deduped)-1] {
			deduped = append(deduped, item)
		}
	}

	return deduped
}
