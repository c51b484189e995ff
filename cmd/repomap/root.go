package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"repomap/internal/slogutil"
	"repomap/internal/version"
)

var (
	repoFlag   string
	jsonOutput bool
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "repomap",
	Short: "repomap - layered code maps for C# projects",
	Long: `repomap analyzes a C# codebase and renders three token-budgeted map
layers: a module skeleton (L1), ranked type signatures (L2), and a
reference graph (L3). Symbols are ordered by PageRank importance so a
reader with a limited window sees the parts that matter first.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("repomap version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Project root to operate on")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Log errors only")
}

// newLogger builds the run logger from the verbosity flags. Logs go to
// stderr so stdout stays parseable under --json; in JSON mode the log
// lines themselves switch to JSON as well.
func newLogger() *slog.Logger {
	level := slogutil.LevelFromFlags(verbose, quiet)
	if jsonOutput {
		return slogutil.NewJSONLogger(os.Stderr, level)
	}
	return slogutil.NewLogger(os.Stderr, level)
}

// projectRoot resolves --repo to an absolute path.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(repoFlag)
	if err != nil {
		return "", fmt.Errorf("resolving --repo %q: %w", repoFlag, err)
	}
	return abs, nil
}
