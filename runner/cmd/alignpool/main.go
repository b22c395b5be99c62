// alignpool runs alignment-pooling scenarios and reports a triage band for
// each pooled alignment.
//
// Usage:
//
//	alignpool [run] --scenarios ./scenarios --format text
//	alignpool watch --config config.yaml
//	alignpool classify -- 0.15 -0.33 0.71
//	alignpool pool --pair 12.4:0.80 --pair 12.9:0.10
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/alignpool/alignpool/runner/internal/compute"
	"github.com/alignpool/alignpool/runner/internal/config"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "alignpool: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "alignpool",
		Usage:     "Pool per-source alignments and band the result for quick triage",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file",
				EnvVars: []string{"ALIGNPOOL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "scenarios",
				Aliases: []string{"s"},
				Value:   config.DefaultScenariosDir,
				Usage:   "Directory of scenario definitions",
				EnvVars: []string{"ALIGNPOOL_SCENARIOS"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   config.DefaultFormat,
				Usage:   "Report format (text, json, prom)",
				EnvVars: []string{"ALIGNPOOL_FORMAT"},
			},
			&cli.Float64Flag{
				Name:    "calm-max",
				Value:   compute.DefaultCalmMax,
				Usage:   "Largest |a| reported as calm (A+)",
				EnvVars: []string{"ALIGNPOOL_CALM_MAX"},
			},
			&cli.Float64Flag{
				Name:    "noticeable-max",
				Value:   compute.DefaultNoticeableMax,
				Usage:   "Largest |a| reported as noticeable (A0)",
				EnvVars: []string{"ALIGNPOOL_NOTICEABLE_MAX"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"ALIGNPOOL_LOG_LEVEL"},
			},
		},
		Before: setupLogging,
		Action: runAction,
		Commands: []*cli.Command{
			runCommand(),
			watchCommand(),
			classifyCommand(),
			poolCommand(),
		},
	}
}

// setupLogging installs a JSON slog handler on the app's error writer so the
// report on stdout stays machine-readable.
func setupLogging(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads --config when given, then applies flag and env overrides
// that were set explicitly, and validates the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyOverrides(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func applyOverrides(c *cli.Context, cfg *config.Config) {
	if c.IsSet("scenarios") {
		cfg.ScenariosDir = c.String("scenarios")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("calm-max") {
		cfg.Thresholds.CalmMax = c.Float64("calm-max")
	}
	if c.IsSet("noticeable-max") {
		cfg.Thresholds.NoticeableMax = c.Float64("noticeable-max")
	}
}
