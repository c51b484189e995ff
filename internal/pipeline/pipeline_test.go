package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"repomap/internal/config"
	"repomap/internal/errors"
	"repomap/internal/parser"
	"repomap/internal/slogutil"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, text := range files {
		abs := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testOptions(root string) Options {
	return Options{
		Root:   root,
		Commit: "1234abcd9999ffff",
		Branch: "main",
		Now:    time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		Parser: parser.NewRegex(),
		Logger: slogutil.NewDiscardLogger(),
	}
}

func sampleConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ProjectName = "Sample"
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	root := writeTree(t, map[string]string{
		"A.cs": `public class Alpha
{
    public void Foo()
    {
        Beta.Bar();
    }
}
`,
		"B.cs": `public class Beta
{
    public void Bar() { }
}
`,
	})

	res, err := Run(context.Background(), sampleConfig(), testOptions(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}

	stats := res.Meta.Stats
	if stats.FileCount != 2 || stats.SymbolCount != 4 || stats.ModuleCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.EdgeCount != 1 || stats.UnresolvedReferences != 0 {
		t.Errorf("edge stats = %+v", stats)
	}
	if !res.Meta.Ranker.Converged {
		t.Error("ranker did not converge on a four-symbol graph")
	}
	if res.Meta.GeneratedAt != "2025-06-10T12:00:00Z" {
		t.Errorf("generated_at = %q", res.Meta.GeneratedAt)
	}
	if res.Meta.Git.Commit != "1234abcd9999ffff" || res.Meta.Git.Branch != "main" {
		t.Errorf("git meta = %+v", res.Meta.Git)
	}

	if !strings.HasPrefix(res.Skeleton, "# Sample Repo Map (L1)\n> Generated: 2025-06-10 | Commit: 1234abcd\n") {
		t.Errorf("skeleton header:\n%s", res.Skeleton)
	}
	if !strings.Contains(res.Skeleton, "## Module Overview (1 modules)") {
		t.Errorf("skeleton overview:\n%s", res.Skeleton)
	}

	for _, want := range []string{
		"## Alpha (rank: ",
		"public class Alpha\n",
		"- public void Bar()\n",
	} {
		if !strings.Contains(res.Signatures, want) {
			t.Errorf("missing %q in signatures:\n%s", want, res.Signatures)
		}
	}

	// The called method outranks its caller, so its block leads the
	// relations layer.
	bar := strings.Index(res.Relations, "Beta.Bar (refs: 1, rank: ")
	foo := strings.Index(res.Relations, "Alpha.Foo (refs: 0, rank: ")
	if bar < 0 || foo < 0 || bar > foo {
		t.Errorf("relations order (bar=%d foo=%d):\n%s", bar, foo, res.Relations)
	}
	if !strings.Contains(res.Relations, "  <- Alpha.Foo (calls)\n") {
		t.Errorf("missing incoming edge:\n%s", res.Relations)
	}
	if !strings.Contains(res.Relations, "  -> Beta.Bar (calls)\n") {
		t.Errorf("missing outgoing edge:\n%s", res.Relations)
	}

	layers := res.Meta.Layers
	if layers.L1.Budget != 1000 || layers.L2.Budget != 2000 || layers.L3.Budget != 3000 {
		t.Errorf("layer budgets = %+v", layers)
	}
	if layers.L1.TokensUsed <= 0 || layers.L1.TokensUsed > layers.L1.Budget {
		t.Errorf("l1 usage = %+v", layers.L1)
	}
	if len(res.Fingerprint) != 64 {
		t.Errorf("fingerprint = %q, want a 64-char digest", res.Fingerprint)
	}
}

func TestRunIdempotent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Core/Manager.cs": `public class GameManager
{
    public void Boot()
    {
        Config.Load();
    }
}
`,
		"Data/Config.cs": `public class Config
{
    public static void Load() { }
}
`,
	})

	first, err := Run(context.Background(), sampleConfig(), testOptions(root))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Run(context.Background(), sampleConfig(), testOptions(root))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs over an unchanged tree differ:\n%+v\n%+v", first, second)
	}
}

// brokenParser fails or crashes on marked files and defers to the real
// parser otherwise.
type brokenParser struct {
	real parser.Parser
}

func (b brokenParser) Name() string { return "broken" }

func (b brokenParser) Parse(ctx context.Context, text string) ([]parser.Node, error) {
	if strings.Contains(text, "FAIL_PARSE") {
		return nil, fmt.Errorf("synthetic failure")
	}
	if strings.Contains(text, "CRASH_PARSE") {
		panic("synthetic crash")
	}
	return b.real.Parse(ctx, text)
}

func TestRunParseFailureIsWarning(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Good.cs": "public class Good { }\n",
		"Bad.cs":  "// FAIL_PARSE\n",
	})
	opts := testOptions(root)
	opts.Parser = brokenParser{real: parser.NewRegex()}

	res, err := Run(context.Background(), sampleConfig(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Bad.cs") {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Meta.Stats.FileCount != 2 || res.Meta.Stats.SymbolCount != 1 {
		t.Errorf("stats = %+v", res.Meta.Stats)
	}
}

func TestRunParserPanicIsWarning(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Good.cs":  "public class Good { }\n",
		"Crash.cs": "// CRASH_PARSE\n",
	})
	opts := testOptions(root)
	opts.Parser = brokenParser{real: parser.NewRegex()}
	opts.Workers = 1

	res, err := Run(context.Background(), sampleConfig(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "parser panic") {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Meta.Stats.SymbolCount != 1 {
		t.Errorf("stats = %+v", res.Meta.Stats)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := sampleConfig()
	cfg.Rank.Damping = 1.5

	_, err := Run(context.Background(), cfg, testOptions(t.TempDir()))
	var mapErr *errors.MapError
	if !stderrors.As(err, &mapErr) || mapErr.Code != errors.ConfigInvalid {
		t.Fatalf("err = %v", err)
	}
}

func TestRunMissingSourceRoot(t *testing.T) {
	cfg := sampleConfig()
	cfg.Source.Root = "src"

	_, err := Run(context.Background(), cfg, testOptions(t.TempDir()))
	var mapErr *errors.MapError
	if !stderrors.As(err, &mapErr) || mapErr.Code != errors.SourceRootMissing {
		t.Fatalf("err = %v", err)
	}
}

func TestRunCanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{
		"A.cs": "public class Alpha { }\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, sampleConfig(), testOptions(root))
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunEmptyTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"README.md": "no sources here\n",
	})

	res, err := Run(context.Background(), sampleConfig(), testOptions(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	stats := res.Meta.Stats
	if stats.FileCount != 0 || stats.SymbolCount != 0 || stats.EdgeCount != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if res.Relations != "# Sample Repo Map (L3)\n\n## Reference Graph\n\n" {
		t.Errorf("relations = %q", res.Relations)
	}
}

func TestRunSCIP(t *testing.T) {
	const pkg = "scip-dotnet nuget MyGame 1.0.0 "
	def := int32(1)
	idx := &scippb.Index{
		Metadata: &scippb.Metadata{ToolInfo: &scippb.ToolInfo{Name: "scip-dotnet"}},
		Documents: []*scippb.Document{
			{
				RelativePath: "Core/GameManager.cs",
				Language:     "csharp",
				Symbols: []*scippb.SymbolInformation{
					{Symbol: pkg + "Core/GameManager#", Kind: scippb.SymbolInformation_Class},
					{Symbol: pkg + "Core/GameManager#StartGame().", Kind: scippb.SymbolInformation_Method},
				},
				Occurrences: []*scippb.Occurrence{
					{Symbol: pkg + "Core/GameManager#", Range: []int32{2, 13, 2, 24}, SymbolRoles: def},
					{Symbol: pkg + "Core/GameManager#StartGame().", Range: []int32{4, 16, 4, 25}, SymbolRoles: def},
				},
			},
			{
				RelativePath: "UI/HUD.cs",
				Language:     "csharp",
				Symbols: []*scippb.SymbolInformation{
					{Symbol: pkg + "UI/HUD#", Kind: scippb.SymbolInformation_Class},
					{Symbol: pkg + "UI/HUD#Draw().", Kind: scippb.SymbolInformation_Method},
				},
				Occurrences: []*scippb.Occurrence{
					{Symbol: pkg + "UI/HUD#", Range: []int32{2, 13, 2, 16}, SymbolRoles: def},
					{Symbol: pkg + "UI/HUD#Draw().", Range: []int32{4, 16, 4, 20}, SymbolRoles: def},
					{Symbol: pkg + "Core/GameManager#StartGame().", Range: []int32{5, 8, 5, 17}},
				},
			},
		},
	}
	data, err := proto.Marshal(idx)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "index.scip")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	res, err := RunSCIP(sampleConfig(), path, testOptions(t.TempDir()))
	if err != nil {
		t.Fatalf("RunSCIP: %v", err)
	}

	stats := res.Meta.Stats
	if stats.FileCount != 2 || stats.SymbolCount != 4 || stats.ModuleCount != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.EdgeCount != 1 || stats.UnresolvedReferences != 0 {
		t.Errorf("edge stats = %+v", stats)
	}
	if res.Fingerprint != "" {
		t.Errorf("fingerprint = %q, want empty for index-driven runs", res.Fingerprint)
	}
	if !strings.HasPrefix(res.Skeleton, "# Sample Repo Map (L1)\n> Generated: 2025-06-10 | Commit: 1234abcd\n") {
		t.Errorf("skeleton header:\n%s", res.Skeleton)
	}
	if !strings.Contains(res.Signatures, "class GameManager") {
		t.Errorf("missing GameManager in signatures:\n%s", res.Signatures)
	}
	if !strings.Contains(res.Relations, "GameManager.StartGame (refs: 1, rank: ") {
		t.Errorf("missing called method in relations:\n%s", res.Relations)
	}
}

func TestRunSCIPMissingIndex(t *testing.T) {
	_, err := RunSCIP(sampleConfig(), filepath.Join(t.TempDir(), "index.scip"), testOptions(t.TempDir()))
	var mapErr *errors.MapError
	if !stderrors.As(err, &mapErr) || mapErr.Code != errors.ScipLoadFailed {
		t.Fatalf("err = %v", err)
	}
}
