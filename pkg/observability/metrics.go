package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments recorded by pipeline stages.
type PipelineMetrics struct {
	issuesIngested        metric.Int64Counter
	normalizationFailures metric.Int64Counter
	duplicateGroups       metric.Int64Counter
	stageDuration         metric.Float64Histogram
	stageFailures         metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on the given
// meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	issuesIngested, err := meter.Int64Counter("crosslint.issues.ingested",
		metric.WithDescription("Raw issues ingested per tool"))
	if err != nil {
		return nil, fmt.Errorf("create issues counter: %w", err)
	}

	normalizationFailures, err := meter.Int64Counter("crosslint.normalization.failures",
		metric.WithDescription("Paths that could not be normalized"))
	if err != nil {
		return nil, fmt.Errorf("create normalization counter: %w", err)
	}

	duplicateGroups, err := meter.Int64Counter("crosslint.dedup.groups",
		metric.WithDescription("Duplicate groups formed"))
	if err != nil {
		return nil, fmt.Errorf("create dedup counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("crosslint.stage.duration",
		metric.WithDescription("Pipeline stage wall time"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create stage histogram: %w", err)
	}

	stageFailures, err := meter.Int64Counter("crosslint.stage.failures",
		metric.WithDescription("Pipeline stages that failed and were skipped"))
	if err != nil {
		return nil, fmt.Errorf("create stage failure counter: %w", err)
	}

	return &PipelineMetrics{
		issuesIngested:        issuesIngested,
		normalizationFailures: normalizationFailures,
		duplicateGroups:       duplicateGroups,
		stageDuration:         stageDuration,
		stageFailures:         stageFailures,
	}, nil
}

// RecordIngested counts raw issues from one tool.
func (m *PipelineMetrics) RecordIngested(ctx context.Context, tool string, count int) {
	m.issuesIngested.Add(ctx, int64(count), metric.WithAttributes(attribute.String("tool", tool)))
}

// RecordNormalizationFailures counts failed path normalizations.
func (m *PipelineMetrics) RecordNormalizationFailures(ctx context.Context, count int) {
	m.normalizationFailures.Add(ctx, int64(count))
}

// RecordDuplicateGroups counts groups formed by one clustering run.
func (m *PipelineMetrics) RecordDuplicateGroups(ctx context.Context, count int) {
	m.duplicateGroups.Add(ctx, int64(count))
}

// RecordStage records one stage's duration and outcome.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, elapsed time.Duration, failed bool) {
	attrs := metric.WithAttributes(attribute.String("stage", stage))

	m.stageDuration.Record(ctx, elapsed.Seconds(), attrs)

	if failed {
		m.stageFailures.Add(ctx, 1, attrs)
	}
}
