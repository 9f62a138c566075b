// Package cache provides the per-run LRU caches shared by pipeline
// stages: source file contents and parsed function spans. Caches are
// scoped to one orchestrator run; there is no process-wide state.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/crosslint-tech/crosslint/pkg/funcspan"
)

// Default cache capacities.
const (
	DefaultSourceEntries = 512
	DefaultSpanEntries   = 1024
)

// RunCaches carries the caches for one pipeline run.
type RunCaches struct {
	source *lru.Cache[string, []byte]
	spans  *lru.Cache[string, []funcspan.Span]
}

// NewRunCaches builds the caches with the given capacities; zero values
// select the defaults.
func NewRunCaches(sourceEntries, spanEntries int) (*RunCaches, error) {
	if sourceEntries <= 0 {
		sourceEntries = DefaultSourceEntries
	}

	if spanEntries <= 0 {
		spanEntries = DefaultSpanEntries
	}

	source, err := lru.New[string, []byte](sourceEntries)
	if err != nil {
		return nil, fmt.Errorf("create source cache: %w", err)
	}

	spans, err := lru.New[string, []funcspan.Span](spanEntries)
	if err != nil {
		return nil, fmt.Errorf("create span cache: %w", err)
	}

	return &RunCaches{source: source, spans: spans}, nil
}

// Source returns cached file contents.
func (c *RunCaches) Source(path string) ([]byte, bool) {
	return c.source.Get(path)
}

// PutSource stores file contents.
func (c *RunCaches) PutSource(path string, content []byte) {
	c.source.Add(path, content)
}

// Spans returns cached function spans for a file.
func (c *RunCaches) Spans(path string) ([]funcspan.Span, bool) {
	return c.spans.Get(path)
}

// PutSpans stores function spans for a file.
func (c *RunCaches) PutSpans(path string, spans []funcspan.Span) {
	c.spans.Add(path, spans)
}

// Len reports current entry counts, for stage metrics.
func (c *RunCaches) Len() (sources, spans int) {
	return c.source.Len(), c.spans.Len()
}
