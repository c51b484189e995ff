// Package gitmeta reads best-effort repository identity for generated
// output. Everything here degrades to empty values: map generation works
// the same in an unversioned tree or without git installed.
package gitmeta

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// Identity is the repository state stamped into rendered headers and
// the metadata record.
type Identity struct {
	Commit string
	Branch string
}

// Resolve returns the identity for the checkout containing root. A
// detached HEAD yields branch "HEAD", matching git's own reporting.
func Resolve(root string) Identity {
	return Identity{
		Commit: revParse(root, "HEAD"),
		Branch: revParse(root, "--abbrev-ref", "HEAD"),
	}
}

// IsRepository reports whether root is inside a git work tree.
func IsRepository(root string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = root
	return cmd.Run() == nil
}

// Root locates the top level of the work tree containing start.
func Root(start string) (string, bool) {
	top := revParse(start, "--show-toplevel")
	return top, top != ""
}

// GitDir returns the repository's .git directory for root, following
// worktree and submodule indirection. git reports it relative to the
// working directory when it sits inside it.
func GitDir(root string) (string, bool) {
	dir := revParse(root, "--git-dir")
	if dir == "" {
		return "", false
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir, true
}

func revParse(root string, args ...string) string {
	cmd := exec.Command("git", append([]string{"rev-parse"}, args...)...)
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
