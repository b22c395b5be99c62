package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/alignpool/alignpool/pkg/types"
	"github.com/alignpool/alignpool/runner/internal/compute"
	"github.com/alignpool/alignpool/runner/internal/config"
	"github.com/alignpool/alignpool/runner/internal/report"
	"github.com/alignpool/alignpool/runner/internal/runner"
	"github.com/alignpool/alignpool/runner/internal/scenario"
)

// =============================================================================
// RUN
// =============================================================================

func runCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run every scenario once and write the report (default)",
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return runOnce(c.Context, cfg, c.App.Writer)
}

// runOnce discovers, executes and reports one pass over cfg.ScenariosDir.
// Only a missing scenario directory or a report write failure is an error;
// individual scenario failures are part of the report.
func runOnce(ctx context.Context, cfg *config.Config, w io.Writer) error {
	classifier, err := compute.NewClassifier(cfg.Thresholds)
	if err != nil {
		return err
	}
	writer, err := report.New(cfg.Format)
	if err != nil {
		return err
	}

	scenarios, err := scenario.Discover(cfg.ScenariosDir, cfg.Pool)
	if err != nil {
		if errors.Is(err, scenario.ErrScenariosNotFound) {
			return fmt.Errorf("could not find scenarios folder %q: %w", cfg.ScenariosDir, err)
		}
		return err
	}

	run := runner.New().Run(ctx, scenarios)
	return writer.Write(w, runner.Summarize(run, classifier))
}

// =============================================================================
// WATCH
// =============================================================================

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Run once, then re-run whenever a scenario or the config file changes",
		Action: watchAction,
	}
}

func watchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runOnce(ctx, cfg, c.App.Writer); err != nil {
		return err
	}

	var mu sync.Mutex
	current := cfg
	rerun := make(chan struct{}, 1)
	trigger := func() {
		select {
		case rerun <- struct{}{}:
		default:
		}
	}

	errc := make(chan error, 2)
	go func() {
		errc <- scenario.Watch(ctx, cfg.ScenariosDir, trigger)
	}()
	if path := c.String("config"); path != "" {
		go func() {
			errc <- config.Watch(ctx, path, func(updated *config.Config) {
				applyOverrides(c, updated)
				if err := updated.Validate(); err != nil {
					slog.Error("config: rejected reloaded config", "err", err)
					return
				}
				mu.Lock()
				current = updated
				mu.Unlock()
				trigger()
			})
		}()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("alignpool: watch stopped")
			return nil
		case err := <-errc:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("watch: %w", err)
			}
		case <-rerun:
			mu.Lock()
			cfg := current
			mu.Unlock()
			if err := runOnce(ctx, cfg, c.App.Writer); err != nil {
				slog.Error("alignpool: re-run failed", "err", err)
			}
		}
	}
}

// =============================================================================
// CLASSIFY
// =============================================================================

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Print the band of each alignment value",
		ArgsUsage: "<a> [<a>...]",
		Action:    classifyAction,
	}
}

func classifyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("classify: at least one alignment value is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	classifier, err := compute.NewClassifier(cfg.Thresholds)
	if err != nil {
		return err
	}
	for _, arg := range c.Args().Slice() {
		a, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("classify: invalid alignment %q: %w", arg, err)
		}
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("classify: alignment %q: %w", arg, compute.ErrInvalidInput)
		}
		band := classifier.Classify(a)
		fmt.Fprintf(c.App.Writer, "a=%+.4f [%s] %s\n", a, band.Label(), band)
	}
	return nil
}

// =============================================================================
// POOL
// =============================================================================

func poolCommand() *cli.Command {
	return &cli.Command{
		Name:  "pool",
		Usage: "Pool ad-hoc m:a pairs and print the classical and pooled values",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "pair",
				Aliases:  []string{"p"},
				Usage:    "Magnitude and alignment as m:a (repeatable)",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "gamma",
				Usage: "Weight exponent applied to |m| (default from config)",
			},
			&cli.Float64Flag{
				Name:  "eps",
				Usage: "Floor for the total weight (default from config)",
			},
		},
		Action: poolAction,
	}
}

func poolAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts := cfg.Pool
	if c.IsSet("gamma") {
		opts.Gamma = c.Float64("gamma")
	}
	if c.IsSet("eps") {
		opts.Eps = c.Float64("eps")
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("pool: %w", err)
	}

	pairs := make([]types.Pair, 0, len(c.StringSlice("pair")))
	for _, raw := range c.StringSlice("pair") {
		p, err := parsePair(raw)
		if err != nil {
			return err
		}
		pairs = append(pairs, p)
	}
	if err := compute.ValidatePairs(pairs); err != nil {
		return fmt.Errorf("pool: %w", err)
	}

	m, err := compute.MeanMagnitude(pairs)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	classifier, err := compute.NewClassifier(cfg.Thresholds)
	if err != nil {
		return err
	}
	a := compute.Pool(pairs, opts)
	band := classifier.Classify(a)

	fmt.Fprintf(c.App.Writer, "Classical: %.4f\n", m)
	fmt.Fprintf(c.App.Writer, "SSM: m=%.4f, a=%+.4f\n", m, a)
	fmt.Fprintln(c.App.Writer, report.FormatSummary(runner.Summary{
		Magnitude: &m, Alignment: a, Band: band, Label: band.Label(),
	}))
	return nil
}

// parsePair parses "m:a", e.g. "12.4:0.80".
func parsePair(s string) (types.Pair, error) {
	ms, as, ok := strings.Cut(s, ":")
	if !ok {
		return types.Pair{}, fmt.Errorf("pair %q: want m:a", s)
	}
	m, err := strconv.ParseFloat(strings.TrimSpace(ms), 64)
	if err != nil {
		return types.Pair{}, fmt.Errorf("pair %q: magnitude: %w", s, err)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(as), 64)
	if err != nil {
		return types.Pair{}, fmt.Errorf("pair %q: alignment: %w", s, err)
	}
	return types.Pair{Magnitude: m, Alignment: a}, nil
}
