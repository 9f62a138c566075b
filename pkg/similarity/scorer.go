// Package similarity scores pairwise issue similarity across six weighted
// factors. The score drives deduplication clustering and evidence strength.
package similarity

import (
	"math"
	"strconv"
	"strings"

	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/textutil"
)

// Factor weights. They sum to 1.0.
const (
	WeightPath    = 0.25
	WeightLine    = 0.20
	WeightRule    = 0.20
	WeightMessage = 0.15
	WeightTool    = 0.10
	WeightContext = 0.10
)

// Line-distance decay bands.
const (
	lineDistanceNear   = 3
	lineDistanceClose  = 10
	lineDistanceFar    = 50
	lineScoreSame      = 1.0
	lineScoreNear      = 0.9
	lineScoreClose     = 0.7
	lineScoreFar       = 0.4
	lineScoreDistant   = 0.1
	lineScoreUnknown   = 0.5
	severityScaleRange = 4.0
)

// Rule-similarity scores.
const (
	ruleScoreExact    = 1.0
	ruleScorePrefix   = 0.8
	ruleScoreCWE      = 0.7
	ruleScoreCategory = 0.5
	ruleScoreNone     = 0.2
)

// Strength classifies an overall similarity score.
type Strength string

// Strength levels.
const (
	StrengthDefinitive Strength = "definitive"
	StrengthStrong     Strength = "strong"
	StrengthModerate   Strength = "moderate"
	StrengthWeak       Strength = "weak"
)

// Strength classification thresholds.
const (
	thresholdDefinitive = 0.95
	thresholdStrong     = 0.85
	thresholdModerate   = 0.65
)

// Thresholds are the clustering cut-offs, independently configurable from
// the strength bands.
type Thresholds struct {
	ExactMatch   float64 `json:"exactMatch"   mapstructure:"exact_match"   yaml:"exact_match"`
	NearMatch    float64 `json:"nearMatch"    mapstructure:"near_match"    yaml:"near_match"`
	RelatedMatch float64 `json:"relatedMatch" mapstructure:"related_match" yaml:"related_match"`
	WeakMatch    float64 `json:"weakMatch"    mapstructure:"weak_match"    yaml:"weak_match"`
}

// DefaultThresholds returns the default clustering thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExactMatch:   1.0,
		NearMatch:    0.85,
		RelatedMatch: 0.65,
		WeakMatch:    0.45,
	}
}

// Factors holds the six per-factor scores, all in [0,1].
type Factors struct {
	Path    float64 `json:"pathSimilarity"    yaml:"path_similarity"`
	Line    float64 `json:"lineSimilarity"    yaml:"line_similarity"`
	Rule    float64 `json:"ruleSimilarity"    yaml:"rule_similarity"`
	Message float64 `json:"messageSimilarity" yaml:"message_similarity"`
	Tool    float64 `json:"toolReliability"   yaml:"tool_reliability"`
	Context float64 `json:"contextSimilarity" yaml:"context_similarity"`
}

// Score is the weighted combination of the six factors.
type Score struct {
	Overall  float64  `json:"overall"  yaml:"overall"`
	Factors  Factors  `json:"factors"  yaml:"factors"`
	Strength Strength `json:"strength" yaml:"strength"`
}

// Weights are the per-factor combination weights. They are hand-tuned
// domain inputs and sum to 1.0.
type Weights struct {
	Path    float64 `json:"path"    mapstructure:"path_weight"        yaml:"path"`
	Line    float64 `json:"line"    mapstructure:"line_weight"        yaml:"line"`
	Rule    float64 `json:"rule"    mapstructure:"rule_weight"        yaml:"rule"`
	Message float64 `json:"message" mapstructure:"message_weight"     yaml:"message"`
	Tool    float64 `json:"tool"    mapstructure:"reliability_weight" yaml:"tool"`
	Context float64 `json:"context" mapstructure:"context_weight"     yaml:"context"`
}

// DefaultWeights returns the canonical factor weights.
func DefaultWeights() Weights {
	return Weights{
		Path:    WeightPath,
		Line:    WeightLine,
		Rule:    WeightRule,
		Message: WeightMessage,
		Tool:    WeightTool,
		Context: WeightContext,
	}
}

// Sum returns the total of the factor weights.
func (w Weights) Sum() float64 {
	return w.Path + w.Line + w.Rule + w.Message + w.Tool + w.Context
}

// Scorer computes pairwise issue similarity. Construct with NewScorer.
type Scorer struct {
	reliability ReliabilityTable
	weights     Weights
}

// NewScorer creates a scorer using the given reliability table.
// A nil table falls back to the built-in defaults.
func NewScorer(reliability ReliabilityTable) *Scorer {
	if reliability == nil {
		reliability = DefaultReliabilityTable()
	}

	return &Scorer{reliability: reliability, weights: DefaultWeights()}
}

// NewScorerWithWeights creates a scorer with custom factor weights.
func NewScorerWithWeights(reliability ReliabilityTable, weights Weights) *Scorer {
	scorer := NewScorer(reliability)

	if weights.Sum() > 0 {
		scorer.weights = weights
	}

	return scorer
}

// Reliability exposes the scorer's tool trust weight, shared with dedup
// primary selection.
func (s *Scorer) Reliability(toolName string) float64 {
	return s.reliability.Reliability(toolName)
}

// Score computes the weighted similarity of two issues.
func (s *Scorer) Score(a, b *finding.Issue) Score {
	factors := Factors{
		Path:    pathSimilarity(a, b),
		Line:    lineSimilarity(a, b),
		Rule:    ruleSimilarity(a, b),
		Message: messageSimilarity(a, b),
		Tool:    s.toolReliability(a, b),
		Context: contextSimilarity(a, b),
	}

	overall := factors.Path*s.weights.Path +
		factors.Line*s.weights.Line +
		factors.Rule*s.weights.Rule +
		factors.Message*s.weights.Message +
		factors.Tool*s.weights.Tool +
		factors.Context*s.weights.Context

	return Score{
		Overall:  overall,
		Factors:  factors,
		Strength: ClassifyStrength(overall),
	}
}

// ClassifyStrength maps an overall score to its strength band.
func ClassifyStrength(overall float64) Strength {
	switch {
	case overall >= thresholdDefinitive:
		return StrengthDefinitive
	case overall >= thresholdStrong:
		return StrengthStrong
	case overall >= thresholdModerate:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

func pathSimilarity(a, b *finding.Issue) float64 {
	pathA, pathB := a.Path(), b.Path()
	if pathA == "" || pathB == "" {
		return 0
	}

	if pathA == pathB {
		return 1.0
	}

	return textutil.JaccardMultisets(strings.Split(pathA, "/"), strings.Split(pathB, "/"))
}

func lineSimilarity(a, b *finding.Issue) float64 {
	if a.Path() != b.Path() {
		return 0
	}

	if !a.HasLine() || !b.HasLine() {
		return lineScoreUnknown
	}

	distance := int(math.Abs(float64(a.Line - b.Line)))

	switch {
	case distance == 0:
		return lineScoreSame
	case distance <= lineDistanceNear:
		return lineScoreNear
	case distance <= lineDistanceClose:
		return lineScoreClose
	case distance <= lineDistanceFar:
		return lineScoreFar
	default:
		return lineScoreDistant
	}
}

func ruleSimilarity(a, b *finding.Issue) float64 {
	if a.RuleID != "" && a.RuleID == b.RuleID {
		return ruleScoreExact
	}

	if prefixA, prefixB := rulePrefix(a.RuleID), rulePrefix(b.RuleID); prefixA != "" && prefixA == prefixB {
		return ruleScorePrefix
	}

	if cweA, cweB := extractCWE(a), extractCWE(b); cweA != "" && cweA == cweB {
		return ruleScoreCWE
	}

	if a.AnalysisType == b.AnalysisType {
		return ruleScoreCategory
	}

	return ruleScoreNone
}

func rulePrefix(ruleID string) string {
	if idx := strings.Index(ruleID, ":"); idx > 0 {
		return ruleID[:idx]
	}

	return ""
}

// extractCWE pulls a CWE identifier out of issue metadata. Adapters store
// it under "cwe" as a string ("CWE-89") or number.
func extractCWE(issue *finding.Issue) string {
	raw, ok := issue.Metadata["cwe"]
	if !ok {
		return ""
	}

	switch v := raw.(type) {
	case string:
		return normalizeCWE(v)
	case int:
		return normalizeCWE("CWE-" + strconv.Itoa(v))
	case float64:
		return normalizeCWE("CWE-" + strconv.Itoa(int(v)))
	case []any:
		if len(v) > 0 {
			if s, isStr := v[0].(string); isStr {
				return normalizeCWE(s)
			}
		}
	}

	return ""
}

func normalizeCWE(raw string) string {
	cwe := strings.ToUpper(strings.TrimSpace(raw))
	if cwe == "" {
		return ""
	}

	if !strings.HasPrefix(cwe, "CWE-") {
		cwe = "CWE-" + strings.TrimPrefix(cwe, "CWE")
	}

	return cwe
}

func messageSimilarity(a, b *finding.Issue) float64 {
	descA := strings.ToLower(strings.TrimSpace(a.Description))
	descB := strings.ToLower(strings.TrimSpace(b.Description))

	if descA != "" && descA == descB {
		return 1.0
	}

	return textutil.JaccardWords(descA, descB)
}

func (s *Scorer) toolReliability(a, b *finding.Issue) float64 {
	return (s.reliability.Reliability(a.ToolName) + s.reliability.Reliability(b.ToolName)) / 2
}

func contextSimilarity(a, b *finding.Issue) float64 {
	diff := math.Abs(float64(a.Severity.Num() - b.Severity.Num()))

	return 1 - diff/severityScaleRange
}
