// Package pipeline runs the full map generation sequence: scan, parse,
// extract, merge, resolve, rank, render.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"repomap/internal/config"
	"repomap/internal/errors"
	"repomap/internal/fingerprint"
	"repomap/internal/graph"
	"repomap/internal/parser"
	"repomap/internal/refs"
	"repomap/internal/render"
	"repomap/internal/scipload"
	"repomap/internal/source"
	"repomap/internal/symbols"
)

// Options carries the per-run inputs that do not belong in the project
// configuration. Zero values select sensible defaults.
type Options struct {
	// Root is the project root; the configured source root is resolved
	// relative to it.
	Root string

	// Commit and Branch are best-effort git identity for the rendered
	// headers and the metadata record. Empty is fine.
	Commit string
	Branch string

	// Now stamps the generated documents. Zero means wall clock; tests
	// pin it for byte-identical output.
	Now time.Time

	// Parser overrides parser selection. Nil picks tree-sitter when
	// compiled in, the regex fallback otherwise.
	Parser parser.Parser

	// Counter overrides token measurement for budget math.
	Counter render.TokenCounter

	// Workers caps parse parallelism. Zero means NumCPU.
	Workers int

	Logger *slog.Logger
}

// Result is one completed generation: the three rendered layers plus
// the metadata record and any non-fatal warnings collected on the way.
type Result struct {
	Skeleton   string
	Signatures string
	Relations  string
	Meta       render.Meta
	Warnings   []string

	// Fingerprint digests the scanned source files; status compares it
	// against a fresh scan to report staleness. Empty for SCIP-driven
	// runs, which never read the tree.
	Fingerprint string
}

// Run executes the generation sequence over the configured source tree.
// Scanning and configuration problems are fatal; a file that fails to
// parse only costs its symbols and is reported as a warning.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "configuration rejected", err)
	}

	start := time.Now()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	files, err := source.Scan(opts.Root, cfg.Source, logger)
	if err != nil {
		return nil, err
	}

	nodes, warnings, err := parseAll(ctx, files, opts, logger)
	if err != nil {
		return nil, err
	}

	// Extraction runs in scan order so symbol ids and first-declared
	// tie-breaks never depend on parse completion order.
	results := make([]symbols.FileResult, len(files))
	for i, f := range files {
		results[i] = symbols.Extract(f, nodes[i], cfg.Categories)
	}

	table, raw := symbols.Merge(results)
	resolution := refs.Resolve(table, raw)
	g := graph.New(table.Len(), resolution.Edges)
	ranked := graph.Rank(g, table.Names(), cfg.Rank, cfg.Boosts)

	res := assemble(cfg, opts, now, table, g, ranked, len(files), resolution.Unresolved, warnings)
	res.Fingerprint = fingerprint.Tree(files)

	logger.Info("Map generated",
		"files", len(files),
		"symbols", table.Len(),
		"edges", g.NumEdges(),
		"unresolved", resolution.Unresolved,
		"converged", ranked.Converged,
		"duration", time.Since(start).Round(time.Millisecond))

	return res, nil
}

// RunSCIP generates the map from a precomputed SCIP index instead of
// parsing sources. Ranking and rendering are shared with Run. The source
// tree itself is never read, so the result carries no fingerprint, and
// references into packages outside the index count as unresolved.
func RunSCIP(cfg *config.Config, indexPath string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "configuration rejected", err)
	}

	start := time.Now()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	idx, err := scipload.Load(indexPath, cfg.Categories, logger)
	if err != nil {
		return nil, err
	}

	g := graph.New(idx.Table.Len(), idx.Edges)
	ranked := graph.Rank(g, idx.Table.Names(), cfg.Rank, cfg.Boosts)
	res := assemble(cfg, opts, now, idx.Table, g, ranked, idx.Documents, idx.External, nil)

	logger.Info("Map generated from SCIP index",
		"tool", idx.Tool,
		"documents", idx.Documents,
		"symbols", idx.Table.Len(),
		"edges", g.NumEdges(),
		"external", idx.External,
		"converged", ranked.Converged,
		"duration", time.Since(start).Round(time.Millisecond))

	return res, nil
}

// assemble renders the three layers and fills the metadata record from
// an analyzed table and graph.
func assemble(cfg *config.Config, opts Options, now time.Time, table *symbols.Table, g *graph.Graph, ranked graph.Result, fileCount, unresolved int, warnings []string) *Result {
	r := render.New(cfg, opts.Counter)
	snap := render.Snapshot{
		Table:  table,
		Graph:  g,
		Ranked: &ranked,
		Commit: opts.Commit,
		Date:   now,
	}
	res := &Result{
		Skeleton:   r.Skeleton(snap),
		Signatures: r.Signatures(snap),
		Relations:  r.Relations(snap),
		Warnings:   warnings,
	}

	meta := render.NewMeta(cfg.ProjectName)
	meta.GeneratedAt = now.UTC().Format(time.RFC3339)
	meta.Git = render.GitMeta{Commit: opts.Commit, Branch: opts.Branch}
	meta.Stats = render.MetaStats{
		FileCount:            fileCount,
		SymbolCount:          table.Len(),
		ModuleCount:          len(table.Modules()),
		EdgeCount:            g.NumEdges(),
		UnresolvedReferences: unresolved,
	}
	meta.Ranker = render.RankerMeta{
		Converged:  ranked.Converged,
		Iterations: ranked.Iterations,
		Damping:    cfg.Rank.Damping,
	}
	meta.Layers = render.LayerMetas{
		L1: render.LayerMeta{TokensUsed: r.Tokens(res.Skeleton), Budget: cfg.Tokens.L1Skeleton},
		L2: render.LayerMeta{TokensUsed: r.Tokens(res.Signatures), Budget: cfg.Tokens.L2Signatures},
		L3: render.LayerMeta{TokensUsed: r.Tokens(res.Relations), Budget: cfg.Tokens.L3Relations},
	}
	res.Meta = meta
	return res
}

// parseAll parses every file in parallel, filling a slot per file so
// downstream order matches scan order. A parse failure or grammar panic
// drops the file's nodes and surfaces as a warning.
func parseAll(ctx context.Context, files []source.File, opts Options, logger *slog.Logger) ([][]parser.Node, []string, error) {
	p := opts.Parser
	if p == nil {
		p = parser.New(logger)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	nodes := make([][]parser.Node, len(files))
	parseErrs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				// A grammar crash on one file must not take down the run.
				if r := recover(); r != nil {
					parseErrs[i] = fmt.Errorf("parser panic: %v", r)
				}
			}()
			ns, err := p.Parse(gctx, f.Text)
			if err != nil {
				parseErrs[i] = err
				return nil
			}
			nodes[i] = ns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	for i, perr := range parseErrs {
		if perr == nil {
			continue
		}
		logger.Warn("Skipping unparsable file", "path", files[i].Path, "error", perr)
		warnings = append(warnings, fmt.Sprintf("parse failed for %s: %v", files[i].Path, perr))
		nodes[i] = nil
	}
	return nodes, warnings, nil
}
