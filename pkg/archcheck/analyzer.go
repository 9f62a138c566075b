package archcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/crosslint-tech/crosslint/pkg/modgraph"
)

// ViolationType identifies a class of architectural problem.
type ViolationType string

// Violation types.
const (
	ViolationCircular         ViolationType = "circular_dependency"
	ViolationLayer            ViolationType = "layer_violation"
	ViolationGodModule        ViolationType = "god_module"
	ViolationOrphanModule     ViolationType = "orphan_module"
	ViolationExternalCoupling ViolationType = "external_coupling"
)

// ClusterType identifies a structural dependency cluster.
type ClusterType string

// Dependency cluster types.
const (
	ClusterCircular ClusterType = "circular"
	ClusterHub      ClusterType = "hub"
	ClusterFanOut   ClusterType = "fan_out"
	ClusterChain    ClusterType = "chain"
	ClusterFanIn    ClusterType = "fan_in"
)

// Detection thresholds.
const (
	godModuleDependencies = 20
	largeCycleSize        = 3
	hubMinimumInDegree    = 3
	hubShare              = 0.10
	fanOutMinimumDegree   = 4
	fanOutShare           = 0.15
	externalCouplingShare = 0.7
	externalCouplingMin   = 10
)

// entryPointNames are filenames never reported as orphans.
var entryPointNames = map[string]struct{}{
	"index.js":  {},
	"index.ts":  {},
	"main.js":   {},
	"main.ts":   {},
	"app.js":    {},
	"app.ts":    {},
	"server.js": {},
	"server.ts": {},
}

// violationNamespace seeds deterministic violation identifiers.
var violationNamespace = uuid.MustParse("c35f9d02-86b1-5e47-a3d8-64f1e92c7b10")

// Violation is one detected architectural problem.
type Violation struct {
	ID              string        `json:"id"              yaml:"id"`
	Type            ViolationType `json:"type"            yaml:"type"`
	Severity        string        `json:"severity"        yaml:"severity"`
	Modules         []string      `json:"modules"         yaml:"modules"`
	Description     string        `json:"description"     yaml:"description"`
	Recommendations []string      `json:"recommendations" yaml:"recommendations"`
}

// Cluster is one structural grouping of modules.
type Cluster struct {
	ID              string      `json:"id"              yaml:"id"`
	Modules         []string    `json:"modules"         yaml:"modules"`
	Type            ClusterType `json:"type"            yaml:"type"`
	Strength        float64     `json:"strength"        yaml:"strength"`
	Recommendations []string    `json:"recommendations" yaml:"recommendations"`
}

// Result is the architectural analysis output.
type Result struct {
	Violations []Violation `json:"violations" yaml:"violations"`
	Clusters   []Cluster   `json:"clusters"   yaml:"clusters"`
	Metrics    Metrics     `json:"metrics"    yaml:"metrics"`
}

// Analyze runs all architectural checks over the module graph.
func Analyze(graph *modgraph.Graph) *Result {
	adj := buildAdjacency(graph)
	result := &Result{}

	cycles := adj.cycles()

	result.Violations = append(result.Violations, cycleViolations(cycles)...)
	result.Violations = append(result.Violations, layerViolations(graph)...)
	result.Violations = append(result.Violations, godModuleViolations(graph)...)
	result.Violations = append(result.Violations, orphanViolations(graph)...)
	result.Violations = append(result.Violations, externalCouplingViolations(graph)...)

	result.Clusters = append(result.Clusters, circularClusters(cycles)...)
	result.Clusters = append(result.Clusters, hubClusters(graph)...)
	result.Clusters = append(result.Clusters, fanOutClusters(graph)...)

	result.Metrics = computeMetrics(graph, adj, cycles)

	return result
}

func buildAdjacency(graph *modgraph.Graph) *adjacency {
	names := make([]string, 0, len(graph.Modules))
	for _, module := range graph.Modules {
		names = append(names, module.FilePath)
	}

	sort.Strings(names)

	adj := newAdjacency(names)

	for _, edge := range graph.InternalEdges() {
		adj.addEdge(edge.From, edge.To)
	}

	return adj
}

func violationID(kind ViolationType, subject string) string {
	return uuid.NewSHA1(violationNamespace, []byte(string(kind)+":"+subject)).String()
}

func cycleViolations(cycles [][]string) []Violation {
	var violations []Violation

	for _, cycle := range cycles {
		severity := "medium"
		if len(cycle) > largeCycleSize {
			severity = "high"
		}

		violations = append(violations, Violation{
			ID:          violationID(ViolationCircular, strings.Join(cycle, ",")),
			Type:        ViolationCircular,
			Severity:    severity,
			Modules:     cycle,
			Description: fmt.Sprintf("Circular dependency among %d modules", len(cycle)),
			Recommendations: []string{
				"Break the cycle by extracting the shared pieces into a module both sides depend on",
				"Invert one dependency through an interface owned by the consumer",
			},
		})
	}

	return violations
}

func layerViolations(graph *modgraph.Graph) []Violation {
	var violations []Violation

	for _, edge := range graph.InternalEdges() {
		fromLayer := ClassifyLayer(edge.From)
		toLayer := ClassifyLayer(edge.To)

		if !IsLayerViolation(fromLayer, toLayer) {
			continue
		}

		violations = append(violations, Violation{
			ID:       violationID(ViolationLayer, edge.From+"->"+edge.To),
			Type:     ViolationLayer,
			Severity: "medium",
			Modules:  []string{edge.From, edge.To},
			Description: fmt.Sprintf("%s layer module %s depends on %s layer module %s",
				fromLayer, edge.From, toLayer, edge.To),
			Recommendations: []string{
				fmt.Sprintf("Route the %s → %s access through the intermediate layer", fromLayer, toLayer),
			},
		})
	}

	return violations
}

func godModuleViolations(graph *modgraph.Graph) []Violation {
	var violations []Violation

	for _, module := range graph.Modules {
		if len(module.Dependencies) <= godModuleDependencies {
			continue
		}

		violations = append(violations, Violation{
			ID:       violationID(ViolationGodModule, module.FilePath),
			Type:     ViolationGodModule,
			Severity: "high",
			Modules:  []string{module.FilePath},
			Description: fmt.Sprintf("Module %s depends on %d modules",
				module.FilePath, len(module.Dependencies)),
			Recommendations: []string{
				"Split responsibilities so each piece needs only a few collaborators",
			},
		})
	}

	return violations
}

func orphanViolations(graph *modgraph.Graph) []Violation {
	var violations []Violation

	for _, module := range graph.Modules {
		if len(module.Dependents) > 0 {
			continue
		}

		base := module.FilePath
		if idx := strings.LastIndex(base, "/"); idx >= 0 {
			base = base[idx+1:]
		}

		if _, entry := entryPointNames[base]; entry {
			continue
		}

		violations = append(violations, Violation{
			ID:          violationID(ViolationOrphanModule, module.FilePath),
			Type:        ViolationOrphanModule,
			Severity:    "medium",
			Modules:     []string{module.FilePath},
			Description: fmt.Sprintf("Module %s has no dependents and is not an entry point", module.FilePath),
			Recommendations: []string{
				"Remove the module or wire it into the dependency graph",
			},
		})
	}

	return violations
}

func externalCouplingViolations(graph *modgraph.Graph) []Violation {
	var violations []Violation

	for _, module := range graph.Modules {
		var external int

		for _, edge := range graph.Edges {
			if edge.From == module.FilePath && edge.IsExternal {
				external++
			}
		}

		total := external + len(module.Dependencies)
		if total < externalCouplingMin {
			continue
		}

		if float64(external)/float64(total) <= externalCouplingShare {
			continue
		}

		violations = append(violations, Violation{
			ID:       violationID(ViolationExternalCoupling, module.FilePath),
			Type:     ViolationExternalCoupling,
			Severity: "low",
			Modules:  []string{module.FilePath},
			Description: fmt.Sprintf("Module %s imports mostly external packages (%d of %d)",
				module.FilePath, external, total),
			Recommendations: []string{
				"Wrap third-party access behind a project-owned facade",
			},
		})
	}

	return violations
}

func circularClusters(cycles [][]string) []Cluster {
	var clusters []Cluster

	for _, cycle := range cycles {
		clusters = append(clusters, Cluster{
			ID:       violationID("cluster_circular", strings.Join(cycle, ",")),
			Modules:  cycle,
			Type:     ClusterCircular,
			Strength: 1.0,
			Recommendations: []string{
				"Untangle the cycle before adding new members",
			},
		})
	}

	return clusters
}

func hubClusters(graph *modgraph.Graph) []Cluster {
	threshold := max(hubMinimumInDegree, ceilShare(len(graph.Modules), hubShare))

	type hub struct {
		module   *modgraph.Module
		inDegree int
	}

	var hubs []hub

	for _, module := range graph.Modules {
		if len(module.Dependents) >= threshold {
			hubs = append(hubs, hub{module: module, inDegree: len(module.Dependents)})
		}
	}

	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].inDegree != hubs[j].inDegree {
			return hubs[i].inDegree > hubs[j].inDegree
		}

		return hubs[i].module.FilePath < hubs[j].module.FilePath
	})

	var clusters []Cluster

	for _, h := range hubs {
		members := append([]string{h.module.FilePath}, h.module.Dependents...)

		clusters = append(clusters, Cluster{
			ID:       violationID("cluster_hub", h.module.FilePath),
			Modules:  members,
			Type:     ClusterHub,
			Strength: float64(h.inDegree) / float64(max(1, len(graph.Modules))),
			Recommendations: []string{
				"Changes here ripple widely; keep this module small and stable",
			},
		})
	}

	return clusters
}

func fanOutClusters(graph *modgraph.Graph) []Cluster {
	threshold := max(fanOutMinimumDegree, ceilShare(len(graph.Modules), fanOutShare))

	var clusters []Cluster

	for _, module := range graph.Modules {
		if len(module.Dependencies) < threshold {
			continue
		}

		members := append([]string{module.FilePath}, module.Dependencies...)

		clusters = append(clusters, Cluster{
			ID:       violationID("cluster_fan_out", module.FilePath),
			Modules:  members,
			Type:     ClusterFanOut,
			Strength: float64(len(module.Dependencies)) / float64(max(1, len(graph.Modules))),
			Recommendations: []string{
				"High fan-out couples this module to many collaborators; consider grouping them",
			},
		})
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Modules[0] < clusters[j].Modules[0] })

	return clusters
}

// ceilShare returns ⌈count·share⌉.
func ceilShare(count int, share float64) int {
	v := float64(count) * share
	ceil := int(v)

	if v > float64(ceil) {
		ceil++
	}

	return ceil
}
