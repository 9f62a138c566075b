package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crosslint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, defaultMaxFiles, cfg.Analysis.MaxFiles)
	assert.Equal(t, defaultBatchConcurrency, cfg.Analysis.BatchConcurrency)
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), weightSumTolerance)
	assert.InDelta(t, 0.85, cfg.Thresholds.NearMatch, 1e-9)
	assert.Contains(t, cfg.Temporal.FixKeywords, "fix")
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
analysis:
  max_files: 250
  batch_concurrency: 4
reliability:
  sonarqube: 0.95
temporal:
  fix_keywords: ["fix", "hotfix"]
`))
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Analysis.MaxFiles)
	assert.Equal(t, 4, cfg.Analysis.BatchConcurrency)
	assert.Equal(t, []string{"fix", "hotfix"}, cfg.Temporal.FixKeywords)
	assert.InDelta(t, 0.95, cfg.ReliabilityTable().Reliability("sonarqube"), 1e-9)
}

func TestLoadRejectsBadWeights(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, `
similarity:
  path_weight: 0.9
`))
	require.ErrorIs(t, err, ErrInvalidWeights)
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, `
thresholds:
  near_match: 0.3
`))
	require.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestLoadRejectsBadReliability(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, `
reliability:
  semgrep: 1.4
`))
	require.ErrorIs(t, err, ErrInvalidReliability)
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, `
analysis:
  batch_concurrency: 0
`))
	require.ErrorIs(t, err, ErrInvalidConcurrency)
}
