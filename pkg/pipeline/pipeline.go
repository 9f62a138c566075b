// Package pipeline orchestrates the analysis stages: ingestion, path
// normalization, deduplication, function clustering, module-graph
// analysis, and temporal analysis. Stages after ingestion are
// independent enough that a failed stage is recorded and skipped while
// the rest of the report is still produced.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/crosslint-tech/crosslint/pkg/adapters"
	"github.com/crosslint-tech/crosslint/pkg/archcheck"
	"github.com/crosslint-tech/crosslint/pkg/cache"
	"github.com/crosslint-tech/crosslint/pkg/config"
	"github.com/crosslint-tech/crosslint/pkg/dedup"
	"github.com/crosslint-tech/crosslint/pkg/finding"
	"github.com/crosslint-tech/crosslint/pkg/funcspan"
	"github.com/crosslint-tech/crosslint/pkg/gitlog"
	"github.com/crosslint-tech/crosslint/pkg/hotspot"
	"github.com/crosslint-tech/crosslint/pkg/modgraph"
	"github.com/crosslint-tech/crosslint/pkg/observability"
	"github.com/crosslint-tech/crosslint/pkg/pathnorm"
	"github.com/crosslint-tech/crosslint/pkg/report"
	"github.com/crosslint-tech/crosslint/pkg/similarity"
	"github.com/crosslint-tech/crosslint/pkg/temporal"
	"github.com/crosslint-tech/crosslint/pkg/textutil"
)

// Stage names used in error records, metrics, and logs.
const (
	StageIngest          = "ingest"
	StageNormalize       = "normalize"
	StageDedup           = "dedup"
	StageFunctionCluster = "function_clustering"
	StageModuleGraph     = "module_graph"
	StageTemporal        = "temporal"
)

// ToolReport points the pipeline at one tool's report file on disk.
type ToolReport struct {
	Tool string
	Path string
}

// Input describes one analysis run.
type Input struct {
	ProjectKey  string
	ProjectRoot string

	// RepoPath is the git repository for temporal analysis. Empty skips
	// the temporal stage without recording an error.
	RepoPath string

	Reports []ToolReport
	Window  temporal.Window
}

// issueClusterer groups the issue stream into duplicate groups.
// Satisfied by *dedup.Clusterer; replaced in tests.
type issueClusterer interface {
	Cluster(issues []*finding.Issue) (*dedup.Result, error)
}

// Pipeline runs the full analysis. Construct with New.
type Pipeline struct {
	cfg       *config.Config
	registry  *adapters.Registry
	spans     funcspan.Provider
	caches    *cache.RunCaches
	history   gitlog.HistoryReader
	clusterer issueClusterer
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.PipelineMetrics
	version   string
	now       func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTracer sets the tracer used for per-stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// WithMetrics sets the pipeline instruments.
func WithMetrics(metrics *observability.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = metrics }
}

// WithHistoryReader replaces the git history reader, mainly for tests.
func WithHistoryReader(reader gitlog.HistoryReader) Option {
	return func(p *Pipeline) { p.history = reader }
}

// WithSpanProvider replaces the function-boundary provider.
func WithSpanProvider(provider funcspan.Provider) Option {
	return func(p *Pipeline) { p.spans = provider }
}

// WithVersion sets the source version stamped into reports.
func WithVersion(version string) Option {
	return func(p *Pipeline) { p.version = version }
}

// WithClock pins the analysis timestamp, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline from the given configuration.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	caches, err := cache.NewRunCaches(cache.DefaultSourceEntries, cache.DefaultSpanEntries)
	if err != nil {
		return nil, fmt.Errorf("create run caches: %w", err)
	}

	p := &Pipeline{
		cfg:      cfg,
		registry: adapters.NewRegistry(),
		spans:    funcspan.NewTreeSitterProvider(),
		caches:   caches,
		history:  gitlog.NewReader(),
		clusterer: dedup.NewClusterer(
			similarity.NewScorerWithWeights(cfg.ReliabilityTable(), cfg.Weights), cfg.Thresholds),
		logger: slog.Default(),
		tracer: nooptrace.NewTracerProvider().Tracer("crosslint"),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Registry exposes the tool adapter registry, so callers can register
// adapters beyond the built-ins before running.
func (p *Pipeline) Registry() *adapters.Registry {
	return p.registry
}

// Run executes every stage against the input and assembles the report.
// Recoverable stage failures are recorded in the report's error section
// and the run continues; a fatal error aborts the remaining stages and is
// returned alongside the partial report.
func (p *Pipeline) Run(ctx context.Context, input Input) (*report.Report, error) {
	if input.ProjectRoot == "" {
		return nil, errors.New("pipeline: project root is required")
	}

	rep := report.New(p.version, input.ProjectKey, input.ProjectRoot, p.now().UTC())

	issues := p.runIngest(ctx, rep, input)
	issues = p.runNormalize(ctx, rep, input, issues)

	enhanced, err := p.runDedup(ctx, rep, issues)
	if err != nil {
		return rep, fmt.Errorf("pipeline: %w", err)
	}

	p.runFunctionClustering(ctx, rep, input, enhanced)
	p.runModuleGraph(ctx, rep, input)
	p.runTemporal(ctx, rep, input, enhanced)

	rep.ComputeProjectMetrics()

	return rep, nil
}

// stage wraps one stage with a span, timing, and failure accounting.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.RecordStage(ctx, name, elapsed, err != nil)
	}

	if err != nil {
		p.logger.ErrorContext(ctx, "stage failed", "stage", name, "error", err)

		return
	}

	p.logger.DebugContext(ctx, "stage finished", "stage", name, "elapsed", elapsed)
}

// --- Ingestion ---.

func (p *Pipeline) runIngest(ctx context.Context, rep *report.Report, input Input) []*finding.Issue {
	var issues []*finding.Issue

	p.stage(ctx, StageIngest, func(ctx context.Context) error {
		results := RunBatch(ctx, input.Reports, p.cfg.Analysis.BatchConcurrency,
			func(ctx context.Context, tr ToolReport) ([]*finding.Issue, error) {
				return p.ingestOne(ctx, tr)
			})

		for i, res := range results {
			if res.Err != nil {
				rep.AddError(classifyIngestError(res.Err), StageIngest,
					input.Reports[i].Tool, res.Err.Error())

				continue
			}

			if p.metrics != nil {
				p.metrics.RecordIngested(ctx, input.Reports[i].Tool, len(res.Value))
			}

			issues = append(issues, res.Value...)
		}

		// Ingestion order is the report-file order, but downstream
		// stages sort by issue id, so the stream is already stable.
		return nil
	})

	return issues
}

func (p *Pipeline) ingestOne(ctx context.Context, tr ToolReport) ([]*finding.Issue, error) {
	adapter, err := p.registry.Get(tr.Tool)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(tr.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", adapters.ErrUnavailable, tr.Path, err)
	}
	defer file.Close()

	raws, err := adapter.Parse(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("parse %s report %s: %w", tr.Tool, tr.Path, err)
	}

	issues := make([]*finding.Issue, 0, len(raws))
	for i := range raws {
		issues = append(issues, adapters.ToIssue(&raws[i]))
	}

	return issues, nil
}

func classifyIngestError(err error) report.ErrorKind {
	if errors.Is(err, adapters.ErrUnknownTool) || errors.Is(err, adapters.ErrUnavailable) {
		return report.ErrAdapterUnavailable
	}

	return report.ErrParse
}

// --- Path normalization ---.

func (p *Pipeline) runNormalize(
	ctx context.Context, rep *report.Report, input Input, issues []*finding.Issue,
) []*finding.Issue {
	p.stage(ctx, StageNormalize, func(ctx context.Context) error {
		normalizer := pathnorm.New(input.ProjectRoot)
		resolver := finding.NewResolver()

		inputs := make([]pathnorm.BatchInput, len(issues))
		for i, issue := range issues {
			inputs[i] = pathnorm.BatchInput{
				ToolPath: rawPath(issue),
				ToolName: issue.ToolName,
			}
		}

		results, stats := normalizer.NormalizeBatch(inputs)
		rep.Project.Metrics.Normalization = stats

		failed := 0

		for i, res := range results {
			if res.Err != nil || !res.Normalized {
				// The issue survives without an entity; dedup and
				// clustering skip it.
				failed++

				msg := "normalization failed"
				if res.Err != nil {
					msg = res.Err.Error()
				}

				rep.AddError(report.ErrNormalization, StageNormalize, rawPath(issues[i]), msg)

				continue
			}

			issues[i].Entity = resolver.Resolve(res.CanonicalPath)
		}

		if failed > 0 && p.metrics != nil {
			p.metrics.RecordNormalizationFailures(ctx, failed)
		}

		return nil
	})

	return issues
}

// rawPath returns the tool-native path stashed by ToIssue.
func rawPath(issue *finding.Issue) string {
	if issue.Entity != nil {
		return issue.Entity.CanonicalPath
	}

	if raw, ok := issue.Metadata[adapters.MetaToolPath].(string); ok {
		return raw
	}

	return ""
}

// --- Deduplication ---.

func (p *Pipeline) runDedup(
	ctx context.Context, rep *report.Report, issues []*finding.Issue,
) ([]*finding.Issue, error) {
	enhanced := issues

	var fatal error

	p.stage(ctx, StageDedup, func(ctx context.Context) error {
		result, err := p.clusterer.Cluster(issues)
		if err != nil {
			// A broken clustering invariant is fatal: the caller aborts
			// instead of running later stages on the raw stream.
			rep.AddError(report.ErrFatal, StageDedup, "", err.Error())
			fatal = fmt.Errorf("cluster issues: %w", err)

			return fatal
		}

		rep.DuplicateGroups = result.Groups
		enhanced = mergeEnhanced(issues, result.Enhanced)

		if p.metrics != nil {
			p.metrics.RecordDuplicateGroups(ctx, len(result.Groups))
		}

		return nil
	})

	rep.Issues = enhanced

	return enhanced, fatal
}

// mergeEnhanced reattaches issues without an entity, which dedup leaves
// out, to the enhanced stream so they still appear in the report.
func mergeEnhanced(all, enhanced []*finding.Issue) []*finding.Issue {
	merged := make([]*finding.Issue, 0, len(enhanced))
	merged = append(merged, enhanced...)

	for _, issue := range all {
		if issue.Entity == nil {
			merged = append(merged, issue)
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })

	return merged
}

// --- Function clustering ---.

func (p *Pipeline) runFunctionClustering(
	ctx context.Context, rep *report.Report, input Input, issues []*finding.Issue,
) {
	p.stage(ctx, StageFunctionCluster, func(ctx context.Context) error {
		files := filesWithIssues(issues)

		spansByFile := make(map[string][]funcspan.Span, len(files))
		lineCounts := make(map[string]int, len(files))

		type fileSpans struct {
			path  string
			spans []funcspan.Span
			lines int
		}

		results := RunBatch(ctx, files, p.cfg.Analysis.BatchConcurrency,
			func(ctx context.Context, path string) (fileSpans, error) {
				spans, lines, err := p.fileSpans(ctx, input.ProjectRoot, path)

				return fileSpans{path: path, spans: spans, lines: lines}, err
			})

		for i, res := range results {
			if res.Err != nil {
				// Clustering still runs with a file-scope fallback span.
				rep.AddError(report.ErrParse, StageFunctionCluster, files[i], res.Err.Error())

				continue
			}

			spansByFile[res.Value.path] = res.Value.spans
			lineCounts[res.Value.path] = res.Value.lines
		}

		clusterer := &hotspot.Clusterer{FileLineCounts: lineCounts}
		result := clusterer.Cluster(issues, spansByFile)

		rep.FunctionClusters = result.Clusters
		rep.CrossFunctionGroups = result.CrossFunctionGroups
		rep.ProximityGroups = result.ProximityGroups

		return nil
	})
}

func filesWithIssues(issues []*finding.Issue) []string {
	seen := make(map[string]struct{})

	var files []string

	for _, issue := range issues {
		path := issue.Path()
		if path == "" {
			continue
		}

		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}

			files = append(files, path)
		}
	}

	sort.Strings(files)

	return files
}

// fileSpans loads one source file and extracts its function boundaries,
// consulting the run caches on both levels.
func (p *Pipeline) fileSpans(
	ctx context.Context, projectRoot, canonicalPath string,
) ([]funcspan.Span, int, error) {
	if spans, ok := p.caches.Spans(canonicalPath); ok {
		source, _ := p.caches.Source(canonicalPath)

		return spans, textutil.CountLines(source), nil
	}

	source, ok := p.caches.Source(canonicalPath)
	if !ok {
		var err error

		source, err = os.ReadFile(filepath.Join(projectRoot, filepath.FromSlash(canonicalPath)))
		if err != nil {
			return nil, 0, fmt.Errorf("read source: %w", err)
		}

		p.caches.PutSource(canonicalPath, source)
	}

	if textutil.IsBinary(source) {
		// No function boundaries; the clusterer falls back to a
		// file-scope span sized by the highest issue line.
		return nil, 0, nil
	}

	spans, err := p.spans.Functions(ctx, canonicalPath, source)
	if err != nil {
		return nil, textutil.CountLines(source), fmt.Errorf("extract functions: %w", err)
	}

	p.caches.PutSpans(canonicalPath, spans)

	return spans, textutil.CountLines(source), nil
}

// --- Module graph ---.

func (p *Pipeline) runModuleGraph(ctx context.Context, rep *report.Report, input Input) {
	p.stage(ctx, StageModuleGraph, func(ctx context.Context) error {
		scanner := modgraph.NewScanner(input.ProjectRoot, p.cfg.Analysis.IgnoreDirs, p.cfg.Analysis.MaxFiles)

		files, err := scanner.Scan()
		if err != nil {
			rep.AddError(report.ErrConfiguration, StageModuleGraph, input.ProjectRoot, err.Error())

			return fmt.Errorf("scan project: %w", err)
		}

		graph := modgraph.Build(files)
		result := archcheck.Analyze(graph)

		rep.ModuleGraph = &report.ModuleGraph{
			Modules:      graph.Modules,
			Dependencies: graph.InternalEdges(),
			Metrics:      result.Metrics,
		}
		rep.ArchitecturalViolations = result.Violations
		rep.DependencyClusters = result.Clusters

		return nil
	})
}

// --- Temporal analysis ---.

func (p *Pipeline) runTemporal(
	ctx context.Context, rep *report.Report, input Input, issues []*finding.Issue,
) {
	if input.RepoPath == "" {
		return
	}

	p.stage(ctx, StageTemporal, func(ctx context.Context) error {
		gitCtx, cancel := context.WithTimeout(ctx, p.cfg.Analysis.GitTimeout)
		defer cancel()

		commits, err := p.history.History(gitCtx, input.RepoPath)
		if err != nil {
			rep.AddError(classifyTemporalError(err), StageTemporal, input.RepoPath, err.Error())

			return fmt.Errorf("read git history: %w", err)
		}

		analyzer := temporal.NewAnalyzer(
			temporal.WithFixKeywords(p.cfg.Temporal.FixKeywords),
			temporal.WithSampleInterval(p.cfg.Temporal.SampleInterval),
			temporal.WithClock(p.now),
			temporal.WithFileAt(func(ctx context.Context, commitHash, filePath string) ([]byte, error) {
				return p.history.FileAt(ctx, input.RepoPath, commitHash, filePath)
			}),
		)

		rep.Temporal = analyzer.Analyze(ctx, commits, issues, input.Window)

		return nil
	})
}

func classifyTemporalError(err error) report.ErrorKind {
	switch {
	case errors.Is(err, gitlog.ErrNotRepository):
		return report.ErrConfiguration
	case errors.Is(err, context.DeadlineExceeded):
		return report.ErrTimeout
	default:
		return report.ErrFatal
	}
}
