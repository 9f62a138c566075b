// Package config provides configuration loading and validation for the
// crosslint pipeline.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/crosslint-tech/crosslint/pkg/similarity"
)

// Sentinel validation errors.
var (
	ErrInvalidConcurrency = errors.New("batch concurrency must be positive")
	ErrInvalidMaxFiles    = errors.New("max files must be positive")
	ErrInvalidWeights     = errors.New("similarity factor weights must sum to 1")
	ErrInvalidThresholds  = errors.New("similarity thresholds must descend within (0,1]")
	ErrInvalidReliability = errors.New("tool reliability weights must lie in [0,1]")
	ErrMissingFixKeywords = errors.New("fix keywords must not be empty")
)

// Default configuration values.
const (
	defaultBatchConcurrency = 10
	defaultMaxFiles         = 1000
	defaultSampleInterval   = 10
	defaultGitTimeout       = 10 * time.Second
	defaultAnalysisTimeout  = 5 * time.Minute
	defaultPollTimeout      = time.Hour
	weightSumTolerance      = 1e-6
)

// Config holds all configuration for a crosslint run.
type Config struct {
	Analysis    AnalysisConfig        `mapstructure:"analysis"`
	Weights     similarity.Weights    `mapstructure:"similarity"`
	Thresholds  similarity.Thresholds `mapstructure:"thresholds"`
	Reliability map[string]float64    `mapstructure:"reliability"`
	Temporal    TemporalConfig        `mapstructure:"temporal"`
	Logging     LoggingConfig         `mapstructure:"logging"`
	Telemetry   TelemetryConfig       `mapstructure:"telemetry"`
}

// AnalysisConfig bounds discovery and scheduling.
type AnalysisConfig struct {
	MaxFiles         int           `mapstructure:"max_files"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	IgnoreDirs       []string      `mapstructure:"ignore_dirs"`
	GitTimeout       time.Duration `mapstructure:"git_timeout"`
	Timeout          time.Duration `mapstructure:"timeout"`
	PollTimeout      time.Duration `mapstructure:"poll_timeout"`
}

// TemporalConfig tunes the git-history analyses. The fix-keyword
// heuristic is configurable because commit-message classification is
// approximate.
type TemporalConfig struct {
	FixKeywords    []string `mapstructure:"fix_keywords"`
	SampleInterval int      `mapstructure:"sample_interval"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
	Enabled        bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and CROSSLINT_ environment
// variables.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("crosslint")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("/etc/crosslint")
	}

	viperCfg.SetEnvPrefix("CROSSLINT")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Scoring weights and
// thresholds default to the canonical model.
func setDefaults(viperCfg *viper.Viper) {
	// Analysis defaults.
	viperCfg.SetDefault("analysis.max_files", defaultMaxFiles)
	viperCfg.SetDefault("analysis.batch_concurrency", defaultBatchConcurrency)
	viperCfg.SetDefault("analysis.ignore_dirs", []string{"node_modules", ".git", "dist", "build", ".next"})
	viperCfg.SetDefault("analysis.git_timeout", defaultGitTimeout)
	viperCfg.SetDefault("analysis.timeout", defaultAnalysisTimeout)
	viperCfg.SetDefault("analysis.poll_timeout", defaultPollTimeout)

	// Similarity defaults.
	weights := similarity.DefaultWeights()
	viperCfg.SetDefault("similarity.path_weight", weights.Path)
	viperCfg.SetDefault("similarity.line_weight", weights.Line)
	viperCfg.SetDefault("similarity.rule_weight", weights.Rule)
	viperCfg.SetDefault("similarity.message_weight", weights.Message)
	viperCfg.SetDefault("similarity.reliability_weight", weights.Tool)
	viperCfg.SetDefault("similarity.context_weight", weights.Context)

	thresholds := similarity.DefaultThresholds()
	viperCfg.SetDefault("thresholds.exact_match", thresholds.ExactMatch)
	viperCfg.SetDefault("thresholds.near_match", thresholds.NearMatch)
	viperCfg.SetDefault("thresholds.related_match", thresholds.RelatedMatch)
	viperCfg.SetDefault("thresholds.weak_match", thresholds.WeakMatch)

	// Temporal defaults.
	viperCfg.SetDefault("temporal.fix_keywords", []string{"fix", "resolve", "close", "patch", "repair", "correct"})
	viperCfg.SetDefault("temporal.sample_interval", defaultSampleInterval)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "json")
	viperCfg.SetDefault("logging.output", "stdout")

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.enabled", false)
}

// validate checks the configuration.
func validate(config *Config) error {
	if config.Analysis.BatchConcurrency <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, config.Analysis.BatchConcurrency)
	}

	if config.Analysis.MaxFiles <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFiles, config.Analysis.MaxFiles)
	}

	if sum := config.Weights.Sum(); sum < 1-weightSumTolerance || sum > 1+weightSumTolerance {
		return fmt.Errorf("%w: sum is %.4f", ErrInvalidWeights, sum)
	}

	thresholds := config.Thresholds

	descending := thresholds.ExactMatch > thresholds.NearMatch &&
		thresholds.NearMatch > thresholds.RelatedMatch &&
		thresholds.RelatedMatch > thresholds.WeakMatch

	if !descending || thresholds.WeakMatch <= 0 || thresholds.ExactMatch > 1 {
		return fmt.Errorf("%w: %.2f/%.2f/%.2f/%.2f", ErrInvalidThresholds,
			thresholds.ExactMatch, thresholds.NearMatch,
			thresholds.RelatedMatch, thresholds.WeakMatch)
	}

	for tool, weight := range config.Reliability {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("%w: %s=%.2f", ErrInvalidReliability, tool, weight)
		}
	}

	if len(config.Temporal.FixKeywords) == 0 {
		return ErrMissingFixKeywords
	}

	return nil
}

// ReliabilityTable merges configured overrides over the built-in tool
// reliability weights.
func (c *Config) ReliabilityTable() similarity.ReliabilityTable {
	table := similarity.DefaultReliabilityTable()

	for tool, weight := range c.Reliability {
		table[tool] = weight
	}

	return table
}
