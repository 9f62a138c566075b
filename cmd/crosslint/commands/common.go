// Package commands implements the crosslint CLI subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crosslint-tech/crosslint/pkg/config"
	"github.com/crosslint-tech/crosslint/pkg/observability"
	"github.com/crosslint-tech/crosslint/pkg/version"
)

// loadConfig reads the effective configuration honoring the persistent
// --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("read config flag: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// observabilityConfig maps the file configuration plus the persistent
// verbosity flags onto the provider configuration.
func observabilityConfig(cmd *cobra.Command, cfg *config.Config) observability.Config {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := parseLogLevel(cfg.Logging.Level)

	if verbose {
		level = slog.LevelDebug
	}

	if quiet {
		level = slog.LevelError
	}

	output := os.Stderr
	if strings.EqualFold(cfg.Logging.Output, "stdout") {
		output = os.Stdout
	}

	obsCfg := observability.Config{
		ServiceName:    "crosslint",
		ServiceVersion: version.Version,
		LogLevel:       level,
		LogJSON:        strings.EqualFold(cfg.Logging.Format, "json"),
		LogOutput:      output,
	}

	if cfg.Telemetry.Enabled {
		obsCfg.OTLPEndpoint = cfg.Telemetry.Endpoint
		obsCfg.PrometheusAddr = cfg.Telemetry.PrometheusAddr
	}

	return obsCfg
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
