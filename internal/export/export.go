// Package export bundles generated map output into a portable archive
// for sharing or CI artifact upload.
package export

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"repomap/internal/errors"
)

// Archive writes a zstd-compressed tar of every regular file under dir
// to outPath, entries in sorted path order. Extra files land at their
// base name next to the directory entries. It returns the number of
// files archived; an empty or missing source directory is an error
// because it means there is nothing generated to export.
func Archive(dir, outPath string, extras ...string) (int, error) {
	entries, err := collect(dir)
	if err != nil {
		return 0, errors.New(errors.ExportFailed,
			fmt.Sprintf("reading output directory %s", dir), err)
	}
	if len(entries) == 0 {
		return 0, errors.New(errors.ExportFailed,
			fmt.Sprintf("nothing to export under %s; run `repomap generate` first", dir), nil)
	}
	for _, extra := range extras {
		if _, err := os.Stat(extra); err != nil {
			return 0, errors.New(errors.ExportFailed,
				fmt.Sprintf("export extra %s", extra), err)
		}
		entries = append(entries, entry{name: filepath.Base(extra), abs: extra})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return 0, errors.New(errors.ExportFailed, "creating archive directory", err)
	}

	// Write to a sibling temp file and rename, so a failed export never
	// leaves a truncated archive at the target path.
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".repomap-export-*")
	if err != nil {
		return 0, errors.New(errors.ExportFailed, "creating archive", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := writeArchive(tmp, entries); err != nil {
		return 0, errors.New(errors.ExportFailed, "writing archive", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.New(errors.ExportFailed, "closing archive", err)
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return 0, errors.New(errors.ExportFailed, "placing archive", err)
	}
	return len(entries), nil
}

// entry pairs an archive member name with the file backing it.
type entry struct {
	name string
	abs  string
}

// collect returns the regular files under dir as entries named by their
// relative slash path, sorted.
func collect(dir string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		entries = append(entries, entry{name: filepath.ToSlash(rel), abs: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

func writeArchive(w io.Writer, entries []entry) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	for _, e := range entries {
		if err := addFile(tw, e.abs, e.name); err != nil {
			return fmt.Errorf("archiving %s: %w", e.name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

func addFile(tw *tar.Writer, abs, rel string) error {
	f, err := os.Open(abs)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = rel

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
