package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"repomap/internal/config"
	"repomap/internal/errors"
	"repomap/internal/project"
)

var (
	initPreset string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize repomap configuration",
	Long: `Creates .repomap/config.yaml in the project root.

Without --preset the project type is detected: a tree with Assets/ and
ProjectSettings/ gets the unity preset, everything else the generic one.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPreset, "preset", "",
		fmt.Sprintf("Configuration preset (%s)", strings.Join(config.PresetNames(), ", ")))
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

// InitResult reports what init wrote (or declined to overwrite).
type InitResult struct {
	Created      bool   `json:"created"`
	ConfigPath   string `json:"configPath"`
	Preset       string `json:"preset,omitempty"`
	ProjectKind  string `json:"projectKind,omitempty"`
	UnityVersion string `json:"unityVersion,omitempty"`
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	root, err := projectRoot()
	if err != nil {
		return err
	}

	if config.Exists(root) && !initForce {
		// Idempotent: already initialized is success, not failure.
		return printResult(&InitResult{Created: false, ConfigPath: config.Path(root)})
	}

	info := project.Detect(root)

	presetName := initPreset
	if presetName == "" {
		presetName = "generic"
		if info.Kind == project.KindUnity {
			presetName = "unity"
		}
		logger.Debug("Detected project type", "kind", info.Kind, "preset", presetName)
	}

	preset, ok := config.LookupPreset(presetName)
	if !ok {
		return errors.New(errors.ConfigInvalid,
			fmt.Sprintf("unknown preset %q (available: %s)", presetName, strings.Join(config.PresetNames(), ", ")), nil)
	}

	cfg := preset.Config(filepath.Base(root))
	// Detection outranks the preset default when it found a real source
	// directory (Assets/Scripts vs the preset's Assets fallback).
	if info.Kind == project.KindUnity && info.SourceRoot != "" {
		cfg.Source.Root = filepath.ToSlash(info.SourceRoot)
	}

	if err := cfg.Save(root); err != nil {
		return errors.New(errors.InternalError, "writing configuration", err)
	}
	logger.Info("Configuration written", "path", config.Path(root), "preset", presetName)

	return printResult(&InitResult{
		Created:      true,
		ConfigPath:   config.Path(root),
		Preset:       presetName,
		ProjectKind:  project.DisplayName(info.Kind),
		UnityVersion: info.UnityVersion,
	})
}
