package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"repomap/internal/config"
	"repomap/internal/errors"
	"repomap/internal/gitmeta"
	"repomap/internal/history"
	"repomap/internal/notify"
	"repomap/internal/pipeline"
	"repomap/internal/render"
	"repomap/internal/runlock"
	"repomap/internal/version"
	"repomap/internal/watcher"
)

var (
	generateSource   string
	generateScip     string
	generateNotify   bool
	generateWatch    bool
	generateInterval time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the three map layers",
	Long: `Analyzes the configured source tree and writes the skeleton,
signature, and relation layers plus the metadata record to the output
directory. With --scip the symbol graph is read from a precomputed SCIP
index instead of parsing sources.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateSource, "source", "", "Override the configured source root")
	generateCmd.Flags().StringVar(&generateScip, "scip", "", "Build the map from a SCIP index file")
	generateCmd.Flags().BoolVar(&generateNotify, "notify", false, "Post a desktop notification when done")
	generateCmd.Flags().BoolVar(&generateWatch, "watch", false, "Keep running and regenerate on source changes")
	generateCmd.Flags().DurationVar(&generateInterval, "interval", watcher.DefaultInterval, "Polling interval in watch mode")
	rootCmd.AddCommand(generateCmd)
}

// GenerateResult is one completed generation for output formatting.
type GenerateResult struct {
	Meta       render.Meta `json:"meta"`
	OutputDir  string      `json:"outputDir"`
	DurationMS int64       `json:"durationMs"`
	Warnings   []string    `json:"warnings,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "loading configuration", err)
	}
	if generateSource != "" {
		cfg.Source.Root = generateSource
	}
	// Surface configuration mistakes before any work, and before watch
	// mode settles into its loop.
	if err := cfg.Validate(); err != nil {
		return errors.New(errors.ConfigInvalid, "configuration rejected", err)
	}

	// One generation per project at a time. Watch mode holds the lock for
	// its whole session, so hook-triggered runs fail fast while the
	// watcher regenerates anyway.
	lock, err := runlock.Acquire(filepath.Join(root, config.Dir))
	if err != nil {
		return err
	}
	defer lock.Release()

	if generateWatch {
		if generateScip != "" {
			return errors.New(errors.ConfigInvalid, "--watch only applies to source parsing, not --scip", nil)
		}
		return watchLoop(cmd.Context(), root, cfg, logger)
	}

	result, err := generateOnce(cmd.Context(), root, cfg, "manual", logger)
	if err != nil {
		return err
	}
	return printResult(result)
}

// generateOnce runs the pipeline and handles everything around it:
// output placement, run history, and the optional notification.
func generateOnce(ctx context.Context, root string, cfg *config.Config, trigger string, logger *slog.Logger) (*GenerateResult, error) {
	start := time.Now()
	identity := gitmeta.Resolve(root)
	opts := pipeline.Options{
		Root:   root,
		Commit: identity.Commit,
		Branch: identity.Branch,
		Logger: logger,
	}

	var res *pipeline.Result
	var err error
	if generateScip != "" {
		res, err = pipeline.RunSCIP(cfg, generateScip, opts)
	} else {
		res, err = pipeline.Run(ctx, cfg, opts)
	}
	if err != nil {
		if generateNotify {
			notify.Send("RepoMap", "Map generation failed")
		}
		return nil, err
	}

	outDir, err := writeOutputs(root, cfg, res)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	recordRun(root, res, identity, trigger, start, duration, logger)

	if generateNotify {
		s := res.Meta.Stats
		notify.Send("RepoMap", fmt.Sprintf("Map updated: %d symbols across %d modules", s.SymbolCount, s.ModuleCount))
	}

	return &GenerateResult{
		Meta:       res.Meta,
		OutputDir:  outDir,
		DurationMS: duration.Milliseconds(),
		Warnings:   res.Warnings,
	}, nil
}

// writeOutputs places the four documents in the configured output
// directory. Each file is written to a temp sibling and renamed, so a
// reader never observes a half-written map.
func writeOutputs(root string, cfg *config.Config, res *pipeline.Result) (string, error) {
	dir := filepath.Join(root, cfg.Output.Directory)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.New(errors.OutputWriteFailed, "creating output directory", err)
	}

	metaData, err := json.MarshalIndent(res.Meta, "", "  ")
	if err != nil {
		return "", errors.New(errors.OutputWriteFailed, "encoding metadata", err)
	}

	docs := []struct {
		name string
		text string
	}{
		{cfg.Output.Files.Skeleton, res.Skeleton},
		{cfg.Output.Files.Signatures, res.Signatures},
		{cfg.Output.Files.Relations, res.Relations},
		{cfg.Output.Files.Meta, string(metaData) + "\n"},
	}
	for _, doc := range docs {
		if err := writeAtomic(filepath.Join(dir, doc.name), []byte(doc.text)); err != nil {
			return "", errors.New(errors.OutputWriteFailed, fmt.Sprintf("writing %s", doc.name), err)
		}
	}
	return dir, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// recordRun appends the run to the history log. History is an
// accessory: any failure is logged and swallowed.
func recordRun(root string, res *pipeline.Result, identity gitmeta.Identity, trigger string, start time.Time, duration time.Duration, logger *slog.Logger) {
	store, err := history.Open(filepath.Join(root, config.Dir), logger)
	if err != nil {
		logger.Warn("Run history unavailable", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	s := res.Meta.Stats
	if _, err := store.Record(history.Run{
		StartedAt:   start,
		Duration:    duration,
		Commit:      identity.Commit,
		Branch:      identity.Branch,
		Fingerprint: res.Fingerprint,
		FileCount:   s.FileCount,
		SymbolCount: s.SymbolCount,
		EdgeCount:   s.EdgeCount,
		Unresolved:  s.UnresolvedReferences,
		Warnings:    len(res.Warnings),
		Converged:   res.Meta.Ranker.Converged,
		Iterations:  res.Meta.Ranker.Iterations,
		Trigger:     trigger,
		ToolVersion: version.Version,
	}); err != nil {
		logger.Warn("Recording run failed", "error", err)
	}
}

// watchLoop generates once, then re-runs the full pipeline after each
// debounced change batch until interrupted. Every run recomputes from
// scratch; there is no incremental analysis.
func watchLoop(parent context.Context, root string, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := generateOnce(ctx, root, cfg, "watch", logger); err != nil {
		return err
	}

	w := watcher.New(root, cfg.Source, watcher.Options{
		Interval: generateInterval,
		Logger:   logger,
		Handler: func(events []watcher.Event) {
			logger.Info("Source changed, regenerating", "changes", len(events))
			for _, ev := range events {
				logger.Debug("Change", "type", ev.Type.String(), "path", ev.Path)
			}
			if _, err := generateOnce(ctx, root, cfg, "watch", logger); err != nil {
				logger.Error("Regeneration failed", "error", err)
			}
		},
	})

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("Watch stopped")
	return nil
}
