// Package source scans a project tree for the files the map is built from.
package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"repomap/internal/config"
	"repomap/internal/errors"
)

// File is one scanned source file. Path is the identity used everywhere
// downstream; it is slash-normalized and relative to the scan root.
type File struct {
	Path    string
	AbsPath string
	Text    string
}

// Scan walks the configured source root under projectRoot and returns the
// matching files sorted by Path. Unreadable files are logged and skipped;
// a missing source root is a hard error.
func Scan(projectRoot string, cfg config.SourceConfig, logger *slog.Logger) ([]File, error) {
	root := filepath.Join(projectRoot, cfg.Root)

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.New(errors.SourceRootMissing,
			fmt.Sprintf("source root not found: %s", root), err)
	}

	var files []File

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable directories are skipped, not fatal
			logger.Warn("Skipping unreadable path", "path", p, "error", walkErr)
			return nil //nolint:nilerr // intentional: keep walking
		}

		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !matchesExtension(p, cfg.Extensions) {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil //nolint:nilerr // intentional: skip paths we can't relativize
		}
		rel = filepath.ToSlash(rel)

		if Excluded(rel, cfg.Exclude) {
			return nil
		}

		text, readErr := os.ReadFile(p)
		if readErr != nil {
			logger.Warn("Skipping unreadable file", "path", rel, "error", readErr)
			return nil
		}

		files = append(files, File{
			Path:    rel,
			AbsPath: p,
			Text:    stripBOM(string(text)),
		})
		return nil
	})
	if walkErr != nil {
		return nil, errors.New(errors.InternalError,
			fmt.Sprintf("walking source root %s", root), walkErr)
	}

	// Symbol identity tie-breaking depends on deterministic file order.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return files, nil
}

// FileStat is the cheap change-detection signature of one source file.
type FileStat struct {
	Size    int64
	ModTime time.Time
}

// Stat walks the source root with the same inclusion rules as Scan but
// records only sizes and modification times, keyed by relative slash
// path. Watch mode polls with it to detect changes without reading
// file contents.
func Stat(projectRoot string, cfg config.SourceConfig) (map[string]FileStat, error) {
	root := filepath.Join(projectRoot, cfg.Root)

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.New(errors.SourceRootMissing,
			fmt.Sprintf("source root not found: %s", root), err)
	}

	stats := make(map[string]FileStat)

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // intentional: keep walking
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesExtension(p, cfg.Extensions) {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil //nolint:nilerr // intentional: skip paths we can't relativize
		}
		rel = filepath.ToSlash(rel)
		if Excluded(rel, cfg.Exclude) {
			return nil
		}
		fi, statErr := d.Info()
		if statErr != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		stats[rel] = FileStat{Size: fi.Size(), ModTime: fi.ModTime()}
		return nil
	})
	if walkErr != nil {
		return nil, errors.New(errors.InternalError,
			fmt.Sprintf("walking source root %s", root), walkErr)
	}

	return stats, nil
}

func matchesExtension(p string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
