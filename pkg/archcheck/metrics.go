package archcheck

import (
	"path"

	"github.com/crosslint-tech/crosslint/pkg/alg/stats"
	"github.com/crosslint-tech/crosslint/pkg/modgraph"
)

// Metrics summarizes the module graph at the project level.
type Metrics struct {
	TotalModules       int     `json:"totalModules"       yaml:"total_modules"`
	TotalDependencies  int     `json:"totalDependencies"  yaml:"total_dependencies"`
	ExternalCount      int     `json:"externalCount"      yaml:"external_count"`
	CycleCount         int     `json:"cycleCount"         yaml:"cycle_count"`
	AverageCoupling    float64 `json:"averageCoupling"    yaml:"average_coupling"`
	MaxDependencyDepth int     `json:"maxDependencyDepth" yaml:"max_dependency_depth"`
	Modularity         float64 `json:"modularity"         yaml:"modularity"`
	Stability          float64 `json:"stability"          yaml:"stability"`
}

func computeMetrics(graph *modgraph.Graph, adj *adjacency, cycles [][]string) Metrics {
	metrics := Metrics{
		TotalModules:      len(graph.Modules),
		TotalDependencies: len(graph.Edges),
		CycleCount:        len(cycles),
	}

	var couplingSum float64

	instabilities := make([]float64, 0, len(graph.Modules))

	for _, module := range graph.Modules {
		couplingSum += float64(module.Coupling.Ca + module.Coupling.Ce)
		instabilities = append(instabilities, module.Coupling.Instability)
	}

	for _, edge := range graph.Edges {
		if edge.IsExternal {
			metrics.ExternalCount++
		}
	}

	if len(graph.Modules) > 0 {
		metrics.AverageCoupling = couplingSum / float64(len(graph.Modules))
		metrics.Stability = 1 - stats.Mean(instabilities)
	}

	metrics.MaxDependencyDepth = maxDependencyDepth(adj)
	metrics.Modularity = directoryModularity(graph)

	return metrics
}

// maxDependencyDepth is the longest simple path in the internal graph,
// measured in edges. The walk keeps a visited set per path, so cycles
// terminate the walk at their current depth.
func maxDependencyDepth(adj *adjacency) int {
	var longest int

	visited := make([]bool, len(adj.names))

	var walk func(node, depth int)

	walk = func(node, depth int) {
		if depth > longest {
			longest = depth
		}

		visited[node] = true

		for _, next := range adj.out[node] {
			if !visited[next] {
				walk(next, depth+1)
			}
		}

		visited[node] = false
	}

	for node := range adj.names {
		walk(node, 0)
	}

	return longest
}

// directoryModularity computes Newman modularity Q with directories as
// communities, normalized to [0,1] by (Q+1)/2. The normalization
// compresses the natural [-0.5,1] range; kept for continuity with the
// established report format.
func directoryModularity(graph *modgraph.Graph) float64 {
	internal := graph.InternalEdges()
	m := float64(len(internal))

	if m == 0 {
		return 0.5 // Q = 0.
	}

	outDegree := make(map[string]float64)
	inDegree := make(map[string]float64)

	for _, edge := range internal {
		outDegree[edge.From]++
		inDegree[edge.To]++
	}

	community := func(modulePath string) string {
		return path.Dir(modulePath)
	}

	var q float64

	for _, edge := range internal {
		if community(edge.From) == community(edge.To) {
			q += 1 / m
		}
	}

	// Expected fraction of intra-community edges under the null model.
	for _, a := range graph.Modules {
		for _, b := range graph.Modules {
			if community(a.FilePath) != community(b.FilePath) {
				continue
			}

			q -= (outDegree[a.FilePath] * inDegree[b.FilePath]) / (m * m)
		}
	}

	return stats.Clamp((q+1)/2, 0, 1)
}
