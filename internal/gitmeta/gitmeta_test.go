package gitmeta

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// initRepo creates a throwaway repository with one commit on main.
func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q", "-b", "main")
	run("config", "user.email", "dev@example.com")
	run("config", "user.name", "Dev")
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", "a.txt")
	run("commit", "-q", "-m", "initial")
	return root
}

func TestResolve(t *testing.T) {
	requireGit(t)
	root := initRepo(t)

	id := Resolve(root)
	if len(id.Commit) != 40 {
		t.Errorf("commit = %q, want a 40-char sha", id.Commit)
	}
	if id.Branch != "main" {
		t.Errorf("branch = %q", id.Branch)
	}
}

func TestResolveOutsideRepository(t *testing.T) {
	requireGit(t)

	id := Resolve(t.TempDir())
	if id.Commit != "" || id.Branch != "" {
		t.Errorf("identity outside a repo = %+v, want empty", id)
	}
}

func TestIsRepository(t *testing.T) {
	requireGit(t)

	if !IsRepository(initRepo(t)) {
		t.Error("IsRepository = false inside a repo")
	}
	if IsRepository(t.TempDir()) {
		t.Error("IsRepository = true outside a repo")
	}
}

func TestGitDir(t *testing.T) {
	requireGit(t)
	root := initRepo(t)

	dir, ok := GitDir(root)
	if !ok {
		t.Fatal("GitDir not found inside a repo")
	}
	wantReal, _ := filepath.EvalSymlinks(filepath.Join(root, ".git"))
	gotReal, _ := filepath.EvalSymlinks(dir)
	if gotReal != wantReal {
		t.Errorf("GitDir = %q, want %q", dir, filepath.Join(root, ".git"))
	}

	if _, ok := GitDir(t.TempDir()); ok {
		t.Error("GitDir reported a directory for a plain directory")
	}
}

func TestRoot(t *testing.T) {
	requireGit(t)
	root := initRepo(t)
	sub := filepath.Join(root, "nested", "deep")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	got, ok := Root(sub)
	if !ok {
		t.Fatal("Root not found from nested directory")
	}
	// Both sides through EvalSymlinks; macOS tempdirs live behind /var.
	wantReal, _ := filepath.EvalSymlinks(root)
	gotReal, _ := filepath.EvalSymlinks(got)
	if gotReal != wantReal {
		t.Errorf("Root = %q, want %q", got, root)
	}

	if _, ok := Root(t.TempDir()); ok {
		t.Error("Root reported a repo for a plain directory")
	}
}
