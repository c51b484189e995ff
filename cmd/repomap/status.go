package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"repomap/internal/config"
	"repomap/internal/fingerprint"
	"repomap/internal/gitmeta"
	"repomap/internal/history"
	"repomap/internal/hooks"
	"repomap/internal/project"
	"repomap/internal/slogutil"
	"repomap/internal/source"
	"repomap/internal/version"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, output freshness, and recent runs",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 10, "Number of recent runs to list")
	rootCmd.AddCommand(statusCmd)
}

// StatusResult is the full project state for output formatting.
type StatusResult struct {
	Version        string       `json:"version"`
	ProjectKind    string       `json:"projectKind"`
	UnityVersion   string       `json:"unityVersion,omitempty"`
	ConfigPresent  bool         `json:"configPresent"`
	ConfigValid    bool         `json:"configValid"`
	ConfigError    string       `json:"configError,omitempty"`
	ConfigPath     string       `json:"configPath"`
	Git            GitIdentity  `json:"git"`
	HooksInstalled bool         `json:"hooksInstalled"`
	Freshness      string       `json:"freshness"`
	LastRun        *RunSummary  `json:"lastRun,omitempty"`
	RecentRuns     []RunSummary `json:"recentRuns,omitempty"`
}

// GitIdentity mirrors gitmeta.Identity with json tags.
type GitIdentity struct {
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// RunSummary is one history row trimmed for display.
type RunSummary struct {
	StartedAt  time.Time `json:"startedAt"`
	Trigger    string    `json:"trigger"`
	Files      int       `json:"files"`
	Symbols    int       `json:"symbols"`
	Edges      int       `json:"edges"`
	Unresolved int       `json:"unresolved"`
	Converged  bool      `json:"converged"`
	DurationMS int64     `json:"durationMs"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	root, err := projectRoot()
	if err != nil {
		return err
	}

	info := project.Detect(root)
	result := &StatusResult{
		Version:        version.Version,
		ProjectKind:    project.DisplayName(info.Kind),
		UnityVersion:   info.UnityVersion,
		ConfigPath:     config.Path(root),
		ConfigPresent:  config.Exists(root),
		Git:            GitIdentity(gitmeta.Resolve(root)),
		HooksInstalled: hooks.Installed(root),
		Freshness:      "unknown",
	}

	cfg, err := config.Load(root)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		result.ConfigError = err.Error()
	} else {
		result.ConfigValid = true
	}

	store, err := history.Open(filepath.Join(root, config.Dir), slogutil.NewDiscardLogger())
	if err != nil {
		logger.Debug("Run history unavailable", "error", err)
		return printResult(result)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(statusRuns)
	if err != nil {
		logger.Debug("Reading run history failed", "error", err)
		return printResult(result)
	}
	for _, run := range runs {
		result.RecentRuns = append(result.RecentRuns, RunSummary{
			StartedAt:  run.StartedAt.Local(),
			Trigger:    run.Trigger,
			Files:      run.FileCount,
			Symbols:    run.SymbolCount,
			Edges:      run.EdgeCount,
			Unresolved: run.Unresolved,
			Converged:  run.Converged,
			DurationMS: run.Duration.Milliseconds(),
		})
	}
	if len(result.RecentRuns) > 0 {
		result.LastRun = &result.RecentRuns[0]
	}

	// Freshness compares the last run's source digest against a fresh
	// scan. SCIP runs record no digest, so they stay "unknown".
	if result.ConfigValid && len(runs) > 0 && runs[0].Fingerprint != "" {
		files, err := source.Scan(root, cfg.Source, slogutil.NewDiscardLogger())
		if err == nil {
			if fingerprint.Tree(files) == runs[0].Fingerprint {
				result.Freshness = "fresh"
			} else {
				result.Freshness = "stale"
			}
		}
	}

	return printResult(result)
}
