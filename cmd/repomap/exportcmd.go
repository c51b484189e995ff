package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"repomap/internal/config"
	"repomap/internal/errors"
	"repomap/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Bundle the generated map into a portable archive",
	Long: `Packs the output directory and the project configuration into a
zstd-compressed tar archive, for sharing or CI artifact upload.`,
	RunE: runExportCmd,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "repomap-export.tar.zst", "Archive path to write")
	rootCmd.AddCommand(exportCmd)
}

// ExportResult describes the written archive.
type ExportResult struct {
	Archive   string `json:"archive"`
	Files     int    `json:"files"`
	SizeBytes int64  `json:"sizeBytes"`
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "loading configuration", err)
	}

	outPath := exportOut
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(root, outPath)
	}

	var extras []string
	if config.Exists(root) {
		extras = append(extras, config.Path(root))
	}

	count, err := export.Archive(filepath.Join(root, cfg.Output.Directory), outPath, extras...)
	if err != nil {
		return err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return errors.New(errors.ExportFailed, "inspecting written archive", err)
	}
	logger.Info("Archive written", "path", outPath, "files", count, "bytes", info.Size())

	return printResult(&ExportResult{
		Archive:   outPath,
		Files:     count,
		SizeBytes: info.Size(),
	})
}
