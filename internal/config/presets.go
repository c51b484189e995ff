package config

import (
	_ "embed"
	"fmt"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
)

//go:embed presets.toml
var presetCatalog []byte

// Preset is a named configuration template shipped with the tool.
type Preset struct {
	Description string         `toml:"description"`
	SourceRoot  string         `toml:"source_root"`
	Exclude     []string       `toml:"exclude"`
	Categories  []CategoryRule `toml:"categories"`
	Boosts      []BoostRule    `toml:"boosts"`
}

type presetFile struct {
	Presets map[string]Preset `toml:"presets"`
}

func loadPresets() (map[string]Preset, error) {
	var f presetFile
	if err := toml.Unmarshal(presetCatalog, &f); err != nil {
		return nil, fmt.Errorf("parse preset catalog: %w", err)
	}
	return f.Presets, nil
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	presets, err := loadPresets()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, bool) {
	presets, err := loadPresets()
	if err != nil {
		return Preset{}, false
	}
	p, ok := presets[name]
	return p, ok
}

// Config builds a full configuration from the preset, with projectName as
// the map title. Fields the preset does not cover keep their defaults.
func (p Preset) Config(projectName string) *Config {
	cfg := DefaultConfig()
	if projectName != "" {
		cfg.ProjectName = projectName
	}
	if p.SourceRoot != "" {
		cfg.Source.Root = p.SourceRoot
	}
	if len(p.Exclude) > 0 {
		cfg.Source.Exclude = append([]string(nil), p.Exclude...)
	}
	if len(p.Categories) > 0 {
		cfg.Categories = append([]CategoryRule(nil), p.Categories...)
	}
	if len(p.Boosts) > 0 {
		cfg.Boosts = append([]BoostRule(nil), p.Boosts...)
	}
	return cfg
}
