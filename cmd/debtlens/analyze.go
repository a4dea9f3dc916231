// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/debtlens/internal/errors"
	"github.com/kraklabs/debtlens/internal/ui"
	"github.com/kraklabs/debtlens/pkg/batch"
	"github.com/kraklabs/debtlens/pkg/cache"
	"github.com/kraklabs/debtlens/pkg/config"
)

// runAnalyze implements `debtlens analyze [path]`: discovers source files
// under path, runs the batch pipeline (pkg/batch), and renders the
// resulting debt report.
//
// Flags:
//   - --threshold: override the complexity threshold (default from config)
//   - --thresholds: named preset (default|strict|lenient)
//   - --workers: parser worker count
//   - --debug: enable debug logging
//   - --metrics-addr: Prometheus metrics HTTP listen address
func runAnalyze(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	threshold := fs.Int("threshold", 0, "Cyclomatic complexity threshold (0 = use config default)")
	preset := fs.String("thresholds", "", "Named threshold preset: default|strict|lenient")
	workers := fs.Int("workers", 0, "Parser worker count (0 = use config default)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	cacheSize := fs.Int("cache-size", 1024, "Max entries in the in-memory source-bytes cache")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: debtlens analyze [path] [options]

Description:
  Analyze a Rust/Python/JavaScript/TypeScript source tree and produce a
  structured technical-debt report: complexity metrics, purity
  classification, call-graph edges, pattern-based refactoring suggestions,
  and prioritized debt items.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			errors.FatalError(errors.NewConfigError(
				"Cannot load configuration",
				err.Error(),
				"Check the --config path, or omit it to use defaults",
				err,
			), globals.JSON)
		}
		cfg = loaded
	}
	if *preset != "" {
		if err := cfg.ApplyPreset(config.ThresholdsPreset(*preset)); err != nil {
			errors.FatalError(errors.NewInputError(
				"Invalid --thresholds value",
				err.Error(),
				"Use one of: default, strict, lenient",
			), globals.JSON)
		}
	}
	if *threshold > 0 {
		cfg.ComplexityThreshold = *threshold
	}
	if *workers > 0 {
		cfg.Concurrency.ParseWorkers = *workers
	}

	logLevel := slog.LevelWarn
	if *debug {
		logLevel = slog.LevelDebug
	} else if globals.Verbose >= 1 {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	serveMetrics(ctx, *metricsAddr, logger)
	metrics := newAnalyzeMetrics()

	paths, err := discoverFiles(root, cfg.ExcludeGlobs)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Cannot walk source tree",
			err.Error(),
			fmt.Sprintf("Check that %q exists and is readable", root),
		), globals.JSON)
	}
	if len(paths) == 0 {
		ui.Warning("No recognized source files found (.rs/.py/.js/.ts/...)")
		return
	}

	srcCache, err := cache.New(*cacheSize)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot initialize source cache",
			err.Error(),
			"This is a bug; please report it",
			err,
		), globals.JSON)
	}

	files := make([]batch.SourceFile, 0, len(paths))
	for _, p := range paths {
		if cached, ok := srcCache.Get(p); ok {
			files = append(files, batch.SourceFile{Path: p, Source: cached})
			continue
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			logger.Warn("analyze.read_file.error", "path", p, "err", readErr)
			continue
		}
		srcCache.Set(p, data)
		files = append(files, batch.SourceFile{Path: p, Source: data})
	}

	runner := batch.NewRunner(cfg)

	var bar *progressbar.ProgressBar
	if !globals.Quiet && ui.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions64(int64(len(files)),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}
	runner.OnProgress = func(current, total int64, phase string) {
		if bar != nil {
			_ = bar.Set64(current)
		}
	}

	result, err := runner.Run(ctx, files)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Analysis run failed",
			err.Error(),
			"This is a bug; please report it",
			err,
		), globals.JSON)
	}

	for _, fm := range result.Files {
		if fm.ParseError != nil {
			metrics.filesFailed.Inc()
		} else {
			metrics.filesProcessed.Inc()
		}
	}

	if globals.JSON {
		if err := renderJSON(os.Stdout, result); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot render JSON report",
				err.Error(),
				"This is a bug; please report it",
				err,
			), globals.JSON)
		}
		return
	}

	renderText(os.Stdout, result)
}
