package archcheck

import "strings"

// Layer is the architectural layer a module belongs to, classified from
// its path.
type Layer string

// Layers in rank order. An edge violates layering when it points from a
// higher-ranked layer to a lower-ranked one.
const (
	LayerInfrastructure Layer = "infrastructure"
	LayerData           Layer = "data"
	LayerBusiness       Layer = "business"
	LayerPresentation   Layer = "presentation"
	LayerUnknown        Layer = "unknown"
)

// layerRank orders layers for violation checks; unknown has no rank.
var layerRank = map[Layer]int{
	LayerInfrastructure: 0,
	LayerData:           1,
	LayerBusiness:       2,
	LayerPresentation:   3,
}

// layerKeywords classify a module by lowercase substring match against its
// path. First matching layer in declaration order wins.
var layerKeywords = []struct {
	layer    Layer
	keywords []string
}{
	{LayerPresentation, []string{"view", "component", "ui", "frontend", "client", "page", "screen"}},
	{LayerBusiness, []string{"service", "logic", "domain", "business", "core", "engine"}},
	{LayerData, []string{"data", "repository", "dao", "model", "entity", "db", "database", "storage"}},
	{LayerInfrastructure, []string{"config", "util", "helper", "lib", "framework", "external", "api"}},
}

// ClassifyLayer maps a module path to its architectural layer.
func ClassifyLayer(modulePath string) Layer {
	lower := strings.ToLower(modulePath)

	for _, entry := range layerKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.layer
			}
		}
	}

	return LayerUnknown
}

// IsLayerViolation reports whether an edge from one layer to another
// points from a higher rank to a lower rank. Edges touching unknown
// layers never violate.
func IsLayerViolation(from, to Layer) bool {
	rankFrom, okFrom := layerRank[from]
	rankTo, okTo := layerRank[to]

	if !okFrom || !okTo {
		return false
	}

	return rankFrom > rankTo
}
