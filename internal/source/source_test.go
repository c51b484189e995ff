package source

import (
	"os"
	"path/filepath"
	"testing"

	"repomap/internal/config"
	"repomap/internal/errors"
	"repomap/internal/slogutil"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

func TestScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeFixture(t, tmpDir, "Core/GameManager.cs", "class GameManager {}")
	writeFixture(t, tmpDir, "Core/bin/Debug/Gen.cs", "class Gen {}")
	writeFixture(t, tmpDir, "UI/HUD.cs", "class HUD {}")
	writeFixture(t, tmpDir, "Editor/Tool.cs", "class Tool {}")
	writeFixture(t, tmpDir, "Player.cs", "class Player {}")
	writeFixture(t, tmpDir, "README.md", "# readme")
	writeFixture(t, tmpDir, ".hidden/Secret.cs", "class Secret {}")

	cfg := config.DefaultConfig().Source
	files, err := Scan(tmpDir, cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []string{"Core/GameManager.cs", "Player.cs", "UI/HUD.cs"}
	if len(files) != len(want) {
		var got []string
		for _, f := range files {
			got = append(got, f.Path)
		}
		t.Fatalf("Scan() paths = %v, want %v", got, want)
	}
	for i, w := range want {
		if files[i].Path != w {
			t.Errorf("files[%d].Path = %q, want %q", i, files[i].Path, w)
		}
	}
	if files[0].Text != "class GameManager {}" {
		t.Errorf("files[0].Text = %q", files[0].Text)
	}
}

func TestScan_SubdirectoryRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeFixture(t, tmpDir, "Assets/Scripts/Player.cs", "class Player {}")
	writeFixture(t, tmpDir, "Assets/Other.cs", "class Other {}")

	cfg := config.SourceConfig{Root: "Assets/Scripts", Extensions: []string{".cs"}}
	files, err := Scan(tmpDir, cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	// Paths are relative to the scan root, not the project root
	if len(files) != 1 || files[0].Path != "Player.cs" {
		t.Fatalf("Scan() = %+v, want single Player.cs", files)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := config.SourceConfig{Root: "does-not-exist", Extensions: []string{".cs"}}
	_, err := Scan(tmpDir, cfg, slogutil.NewDiscardLogger())
	if err == nil {
		t.Fatal("Scan() should fail for a missing source root")
	}

	mapErr, ok := err.(*errors.MapError)
	if !ok {
		t.Fatalf("error type = %T, want *errors.MapError", err)
	}
	if mapErr.Code != errors.SourceRootMissing {
		t.Errorf("Code = %s, want %s", mapErr.Code, errors.SourceRootMissing)
	}
}

func TestScan_StripsBOM(t *testing.T) {
	tmpDir := t.TempDir()
	writeFixture(t, tmpDir, "Bom.cs", "\uFEFFclass Bom {}")

	cfg := config.SourceConfig{Root: ".", Extensions: []string{".cs"}}
	files, err := Scan(tmpDir, cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1", len(files))
	}
	if files[0].Text != "class Bom {}" {
		t.Errorf("Text = %q, BOM should be stripped", files[0].Text)
	}
}

func TestScan_CaseInsensitiveExtension(t *testing.T) {
	tmpDir := t.TempDir()
	writeFixture(t, tmpDir, "Upper.CS", "class Upper {}")

	cfg := config.SourceConfig{Root: ".", Extensions: []string{".cs"}}
	files, err := Scan(tmpDir, cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1 (extension match is case-insensitive)", len(files))
	}
}

func TestStat(t *testing.T) {
	tmpDir := t.TempDir()
	writeFixture(t, tmpDir, "Core/Game.cs", "class Game {}")
	writeFixture(t, tmpDir, "Core/bin/Skip.cs", "class Skip {}")
	writeFixture(t, tmpDir, "README.md", "notes")

	cfg := config.SourceConfig{
		Root:       ".",
		Extensions: []string{".cs"},
		Exclude:    []string{"**/bin/**"},
	}
	stats, err := Stat(tmpDir, cfg)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("len(stats) = %d, want 1 (%v)", len(stats), stats)
	}
	st, ok := stats["Core/Game.cs"]
	if !ok {
		t.Fatal("Core/Game.cs missing from snapshot")
	}
	if st.Size != int64(len("class Game {}")) {
		t.Errorf("Size = %d, want %d", st.Size, len("class Game {}"))
	}
	if st.ModTime.IsZero() {
		t.Error("ModTime is zero")
	}
}

func TestStat_MissingRoot(t *testing.T) {
	cfg := config.SourceConfig{Root: "src", Extensions: []string{".cs"}}
	_, err := Stat(t.TempDir(), cfg)
	if err == nil {
		t.Fatal("Stat() expected error for missing root")
	}
	mapErr, ok := err.(*errors.MapError)
	if !ok {
		t.Fatalf("error type = %T, want *errors.MapError", err)
	}
	if mapErr.Code != errors.SourceRootMissing {
		t.Errorf("Code = %s, want %s", mapErr.Code, errors.SourceRootMissing)
	}
}
