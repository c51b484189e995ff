package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// printResult writes a command result to stdout in the active format.
func printResult(resp interface{}) error {
	format := FormatHuman
	if jsonOutput {
		format = FormatJSON
	}
	output, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	fmt.Print(output)
	return nil
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *InitResult:
		return formatInitHuman(v), nil
	case *GenerateResult:
		return formatGenerateHuman(v), nil
	case *StatusResult:
		return formatStatusHuman(v), nil
	case *HooksResult:
		return formatHooksHuman(v), nil
	case *ExportResult:
		return formatExportHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatInitHuman(r *InitResult) string {
	var b strings.Builder

	if !r.Created {
		b.WriteString("repomap already initialized.\n")
		fmt.Fprintf(&b, "Configuration at: %s\n", r.ConfigPath)
		b.WriteString("\nRun 'repomap init --force' to reinitialize.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "repomap initialized with the %s preset.\n", r.Preset)
	fmt.Fprintf(&b, "Configuration written to: %s\n", r.ConfigPath)
	fmt.Fprintf(&b, "Detected project type: %s\n", r.ProjectKind)
	if r.UnityVersion != "" {
		fmt.Fprintf(&b, "Unity editor: %s\n", r.UnityVersion)
	}
	b.WriteString("\nNext steps:\n")
	b.WriteString("  1. Run 'repomap generate' to build the map\n")
	b.WriteString("  2. Run 'repomap hooks install' to refresh it after merges\n")
	return b.String()
}

func formatGenerateHuman(r *GenerateResult) string {
	var b strings.Builder
	s := r.Meta.Stats

	fmt.Fprintf(&b, "Map generated in %dms\n", r.DurationMS)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&b, "Files:    %d\n", s.FileCount)
	fmt.Fprintf(&b, "Symbols:  %d across %d modules\n", s.SymbolCount, s.ModuleCount)
	fmt.Fprintf(&b, "Edges:    %d (%d unresolved references)\n", s.EdgeCount, s.UnresolvedReferences)
	if r.Meta.Ranker.Converged {
		fmt.Fprintf(&b, "Ranker:   converged after %d iterations\n", r.Meta.Ranker.Iterations)
	} else {
		fmt.Fprintf(&b, "Ranker:   stopped after %d iterations without converging\n", r.Meta.Ranker.Iterations)
	}
	l := r.Meta.Layers
	fmt.Fprintf(&b, "Layers:   L1 %d/%d  L2 %d/%d  L3 %d/%d tokens\n",
		l.L1.TokensUsed, l.L1.Budget, l.L2.TokensUsed, l.L2.Budget, l.L3.TokensUsed, l.L3.Budget)
	fmt.Fprintf(&b, "Output:   %s\n", r.OutputDir)

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "\n%d file(s) skipped:\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", w)
		}
	}
	return b.String()
}

func formatStatusHuman(r *StatusResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "repomap status - v%s\n", r.Version)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	project := r.ProjectKind
	if r.UnityVersion != "" {
		project += " (editor " + r.UnityVersion + ")"
	}
	fmt.Fprintf(&b, "Project:  %s\n", project)

	switch {
	case !r.ConfigPresent:
		b.WriteString("Config:   ✗ missing (run 'repomap init')\n")
	case !r.ConfigValid:
		fmt.Fprintf(&b, "Config:   ✗ invalid: %s\n", r.ConfigError)
	default:
		fmt.Fprintf(&b, "Config:   ✓ %s\n", r.ConfigPath)
	}

	if r.Git.Commit != "" {
		commit := r.Git.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&b, "Git:      %s @ %s\n", r.Git.Branch, commit)
	} else {
		b.WriteString("Git:      not a repository\n")
	}

	if r.HooksInstalled {
		b.WriteString("Hooks:    ✓ installed\n")
	} else {
		b.WriteString("Hooks:    ✗ not installed\n")
	}

	switch r.Freshness {
	case "fresh":
		b.WriteString("Output:   ✓ fresh\n\n")
	case "stale":
		b.WriteString("Output:   ✗ stale (source changed since the last run)\n\n")
	default:
		b.WriteString("Output:   freshness unknown\n\n")
	}

	if r.LastRun == nil {
		b.WriteString("No runs recorded. Run 'repomap generate' to build the map.\n")
		return b.String()
	}

	lr := r.LastRun
	fmt.Fprintf(&b, "Last run: %s (%s)\n", lr.StartedAt.Format("2006-01-02 15:04:05"), lr.Trigger)
	fmt.Fprintf(&b, "  Files: %d  Symbols: %d  Edges: %d  Unresolved: %d\n",
		lr.Files, lr.Symbols, lr.Edges, lr.Unresolved)
	converged := "yes"
	if !lr.Converged {
		converged = "no"
	}
	fmt.Fprintf(&b, "  Duration: %dms  Converged: %s\n", lr.DurationMS, converged)

	if len(r.RecentRuns) > 1 {
		b.WriteString("\nRecent runs:\n")
		for _, run := range r.RecentRuns {
			fmt.Fprintf(&b, "  %s  %-6s  %4d files  %5dms\n",
				run.StartedAt.Format("2006-01-02 15:04:05"), run.Trigger, run.Files, run.DurationMS)
		}
	}
	return b.String()
}

func formatHooksHuman(r *HooksResult) string {
	var b strings.Builder
	switch r.Action {
	case "install":
		fmt.Fprintf(&b, "Installed git hooks: %s\n", strings.Join(r.Hooks, ", "))
		b.WriteString("The map now regenerates after merges and branch switches that touch C# files.\n")
	case "uninstall":
		fmt.Fprintf(&b, "Removed git hooks: %s\n", strings.Join(r.Hooks, ", "))
	}
	return b.String()
}

func formatExportHuman(r *ExportResult) string {
	return fmt.Sprintf("Exported %d files to %s (%s)\n", r.Files, r.Archive, formatBytes(r.SizeBytes))
}

// formatBytes formats byte size in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
