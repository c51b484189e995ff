// Package hooks manages the git hooks that regenerate the code map after
// merges and branch switches. The managed lines sit between begin and end
// markers inside post-merge and post-checkout, so hook scripts a project
// already has survive both install and uninstall.
package hooks

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"repomap/internal/errors"
	"repomap/internal/gitmeta"
)

const (
	beginMarker = "# >>> repomap hook >>>"
	endMarker   = "# <<< repomap hook <<<"
)

// hookNames lists the hooks we manage. post-merge fires after pulls and
// merges, post-checkout after branch switches.
var hookNames = []string{"post-merge", "post-checkout"}

const sectionTemplate = beginMarker + `
if command -v repomap >/dev/null 2>&1; then
  if git diff --name-only "HEAD@{1}" HEAD 2>/dev/null | grep -qE '\.cs$'; then
    %s >/dev/null 2>&1 || true
  fi
fi
` + endMarker + "\n"

// section renders the managed hook body. The script is a no-op when the
// repomap binary is missing or no C# file changed in the last update.
func section(withNotify bool) string {
	cmd := "repomap generate"
	if withNotify {
		cmd += " --notify"
	}
	return fmt.Sprintf(sectionTemplate, cmd)
}

// Install writes the managed section into each hook. A hook that already
// carries the section gets it replaced in place; a foreign hook is backed
// up to <name>.backup before the section is appended.
func Install(root string, withNotify bool, logger *slog.Logger) error {
	gitDir, ok := gitmeta.GitDir(root)
	if !ok {
		return errors.New(errors.HookFailed, fmt.Sprintf("%s is not inside a git repository", root), nil)
	}
	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return errors.New(errors.HookFailed, "creating hooks directory", err)
	}

	body := section(withNotify)
	for _, name := range hookNames {
		path := filepath.Join(hooksDir, name)
		existing, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			if err := writeHook(path, "#!/bin/sh\n\n"+body); err != nil {
				return err
			}
			logger.Info("Installed git hook", "hook", name)
		case err != nil:
			return errors.New(errors.HookFailed, fmt.Sprintf("reading hook %s", name), err)
		case strings.Contains(string(existing), beginMarker):
			content := strings.TrimRight(stripSection(string(existing)), "\n") + "\n\n" + body
			if err := writeHook(path, content); err != nil {
				return err
			}
			logger.Info("Updated git hook", "hook", name)
		default:
			if err := os.WriteFile(path+".backup", existing, 0755); err != nil {
				return errors.New(errors.HookFailed, fmt.Sprintf("backing up hook %s", name), err)
			}
			content := strings.TrimRight(string(existing), "\n") + "\n\n" + body
			if err := writeHook(path, content); err != nil {
				return err
			}
			logger.Info("Appended to existing git hook", "hook", name, "backup", name+".backup")
		}
	}
	return nil
}

// Uninstall strips the managed section from each hook. A hook with nothing
// meaningful left is deleted, and its backup restored when one exists.
func Uninstall(root string, logger *slog.Logger) error {
	gitDir, ok := gitmeta.GitDir(root)
	if !ok {
		return errors.New(errors.HookFailed, fmt.Sprintf("%s is not inside a git repository", root), nil)
	}

	for _, name := range hookNames {
		path := filepath.Join(gitDir, "hooks", name)
		existing, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.New(errors.HookFailed, fmt.Sprintf("reading hook %s", name), err)
		}
		if !strings.Contains(string(existing), beginMarker) {
			continue
		}

		remainder := stripSection(string(existing))
		backup := path + ".backup"
		if !hollow(remainder) {
			content := strings.TrimRight(remainder, "\n") + "\n"
			if err := writeHook(path, content); err != nil {
				return err
			}
			// The backup is redundant once the hook matches it again.
			if prev, readErr := os.ReadFile(backup); readErr == nil && string(prev) == content {
				_ = os.Remove(backup)
			}
			logger.Info("Removed managed section from git hook", "hook", name)
			continue
		}
		if err := os.Remove(path); err != nil {
			return errors.New(errors.HookFailed, fmt.Sprintf("removing hook %s", name), err)
		}
		if _, statErr := os.Stat(backup); statErr == nil {
			if err := os.Rename(backup, path); err != nil {
				return errors.New(errors.HookFailed, fmt.Sprintf("restoring backup for hook %s", name), err)
			}
			logger.Info("Restored original git hook", "hook", name)
		} else {
			logger.Info("Removed git hook", "hook", name)
		}
	}
	return nil
}

// Names lists the managed hook names.
func Names() []string {
	return append([]string(nil), hookNames...)
}

// Installed reports whether the managed section is present. Checking
// post-merge alone is enough; Install always writes both hooks.
func Installed(root string) bool {
	gitDir, ok := gitmeta.GitDir(root)
	if !ok {
		return false
	}
	data, err := os.ReadFile(filepath.Join(gitDir, "hooks", hookNames[0]))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), beginMarker)
}

func writeHook(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return errors.New(errors.HookFailed, fmt.Sprintf("writing hook %s", filepath.Base(path)), err)
	}
	// WriteFile leaves the mode of a pre-existing file alone; hooks must
	// stay executable after we rewrite them.
	if err := os.Chmod(path, 0755); err != nil {
		return errors.New(errors.HookFailed, fmt.Sprintf("marking hook %s executable", filepath.Base(path)), err)
	}
	return nil
}

// stripSection drops every line between the markers, markers included.
func stripSection(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	inSection := false
	for _, line := range lines {
		switch strings.TrimSpace(line) {
		case beginMarker:
			inSection = true
		case endMarker:
			inSection = false
		default:
			if !inSection {
				kept = append(kept, line)
			}
		}
	}
	return strings.Join(kept, "\n")
}

// hollow reports whether content carries nothing beyond a shebang,
// comments, and blank lines.
func hollow(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return false
	}
	return true
}
