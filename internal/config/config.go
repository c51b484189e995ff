// Package config defines the repomap configuration schema and its
// loading, validation, and persistence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Dir is the per-project state directory, relative to the project root.
const Dir = ".repomap"

// FileName is the config file name inside Dir.
const FileName = "config.yaml"

// MatchPrefix and MatchSuffix are the recognized boost rule kinds.
const (
	MatchPrefix = "prefix"
	MatchSuffix = "suffix"
)

// Config represents the complete repomap configuration.
type Config struct {
	ProjectName string         `yaml:"project_name" mapstructure:"project_name"`
	Source      SourceConfig   `yaml:"source" mapstructure:"source"`
	Tokens      TokenConfig    `yaml:"tokens" mapstructure:"tokens"`
	Rank        RankConfig     `yaml:"rank" mapstructure:"rank"`
	Boosts      []BoostRule    `yaml:"boosts" mapstructure:"boosts"`
	Categories  []CategoryRule `yaml:"categories" mapstructure:"categories"`
	Output      OutputConfig   `yaml:"output" mapstructure:"output"`
}

// SourceConfig describes which files are analyzed.
type SourceConfig struct {
	Root       string   `yaml:"root" mapstructure:"root"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`
}

// TokenConfig holds the per-layer token budgets.
type TokenConfig struct {
	L1Skeleton   int `yaml:"l1_skeleton" mapstructure:"l1_skeleton"`
	L2Signatures int `yaml:"l2_signatures" mapstructure:"l2_signatures"`
	L3Relations  int `yaml:"l3_relations" mapstructure:"l3_relations"`
}

// RankConfig holds the importance ranker parameters.
type RankConfig struct {
	Damping       float64 `yaml:"damping" mapstructure:"damping"`
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
}

// BoostRule multiplies a symbol's raw importance score when its display
// name matches the pattern. Match is "prefix" or "suffix".
type BoostRule struct {
	Match   string  `yaml:"match" mapstructure:"match" toml:"match"`
	Pattern string  `yaml:"pattern" mapstructure:"pattern" toml:"pattern"`
	Boost   float64 `yaml:"boost" mapstructure:"boost" toml:"boost"`
}

// CategoryRule assigns a category label to modules whose path contains
// any of the patterns. Rules are checked in config order; first match wins.
type CategoryRule struct {
	Name     string   `yaml:"name" mapstructure:"name" toml:"name"`
	Patterns []string `yaml:"patterns" mapstructure:"patterns" toml:"patterns"`
}

// OutputConfig describes where rendered documents are written.
type OutputConfig struct {
	Directory string      `yaml:"directory" mapstructure:"directory"`
	Files     OutputFiles `yaml:"files" mapstructure:"files"`
}

// OutputFiles names the four output documents.
type OutputFiles struct {
	Skeleton   string `yaml:"skeleton" mapstructure:"skeleton"`
	Signatures string `yaml:"signatures" mapstructure:"signatures"`
	Relations  string `yaml:"relations" mapstructure:"relations"`
	Meta       string `yaml:"meta" mapstructure:"meta"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProjectName: "C# Project",
		Source: SourceConfig{
			Root:       ".",
			Extensions: []string{".cs"},
			Exclude:    []string{"**/bin/**", "**/obj/**", "**/Editor/**", "**/Test/**"},
		},
		Tokens: TokenConfig{
			L1Skeleton:   1000,
			L2Signatures: 2000,
			L3Relations:  3000,
		},
		Rank: RankConfig{
			Damping:       0.85,
			MaxIterations: 100,
			Tolerance:     1e-6,
		},
		Boosts: []BoostRule{
			{Match: MatchPrefix, Pattern: "S", Boost: 2.0},
			{Match: MatchSuffix, Pattern: "Manager", Boost: 1.5},
			{Match: MatchSuffix, Pattern: "Controller", Boost: 1.5},
			{Match: MatchSuffix, Pattern: "Service", Boost: 1.5},
		},
		Categories: []CategoryRule{
			{Name: "Core", Patterns: []string{"Core", "Common", "Util", "Base"}},
			{Name: "Game", Patterns: []string{"Game", "Player", "Level", "Scene"}},
			{Name: "UI", Patterns: []string{"UI", "View", "Panel", "Window", "Dialog"}},
			{Name: "Data", Patterns: []string{"Data", "Model", "Entity", "Config"}},
		},
		Output: OutputConfig{
			Directory: filepath.Join(Dir, "output"),
			Files: OutputFiles{
				Skeleton:   "repomap-L1-skeleton.md",
				Signatures: "repomap-L2-signatures.md",
				Relations:  "repomap-L3-relations.md",
				Meta:       "repomap-meta.json",
			},
		},
	}
}

// Path returns the config file path for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, FileName)
}

// Exists reports whether a config file is present for the project root.
func Exists(projectRoot string) bool {
	_, err := os.Stat(Path(projectRoot))
	return err == nil
}

// Load reads .repomap/config.yaml under projectRoot. A missing file is not
// an error: defaults are returned. Keys present in the file override the
// defaults; everything else keeps its default value.
func Load(projectRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(projectRoot, Dir))

	cfg := DefaultConfig()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, err
	}

	// Decoding into the prefilled struct leaves absent keys at their
	// default values, matching deep-merge semantics.
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to .repomap/config.yaml under projectRoot,
// creating the state directory if needed.
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	header := []byte("# repomap configuration\n# See `repomap init --help` for preset options.\n")
	return os.WriteFile(filepath.Join(dir, FileName), append(header, data...), 0644)
}

// Validate checks if the configuration is valid. Validation failures are
// fatal before a pipeline run starts.
func (c *Config) Validate() error {
	if c.Source.Root == "" {
		return &ConfigError{Field: "source.root", Message: "must not be empty"}
	}
	if len(c.Source.Extensions) == 0 {
		return &ConfigError{Field: "source.extensions", Message: "must list at least one extension"}
	}
	if c.Tokens.L1Skeleton < 0 {
		return &ConfigError{Field: "tokens.l1_skeleton", Message: "token budget must not be negative"}
	}
	if c.Tokens.L2Signatures < 0 {
		return &ConfigError{Field: "tokens.l2_signatures", Message: "token budget must not be negative"}
	}
	if c.Tokens.L3Relations < 0 {
		return &ConfigError{Field: "tokens.l3_relations", Message: "token budget must not be negative"}
	}
	if c.Rank.Damping < 0 || c.Rank.Damping >= 1 {
		return &ConfigError{Field: "rank.damping", Message: "must be in [0, 1)"}
	}
	if c.Rank.MaxIterations < 1 {
		return &ConfigError{Field: "rank.max_iterations", Message: "must be at least 1"}
	}
	if c.Rank.Tolerance <= 0 {
		return &ConfigError{Field: "rank.tolerance", Message: "must be positive"}
	}
	for i, b := range c.Boosts {
		if b.Match != MatchPrefix && b.Match != MatchSuffix {
			return &ConfigError{
				Field:   fmt.Sprintf("boosts[%d].match", i),
				Message: "must be \"prefix\" or \"suffix\"",
			}
		}
		if b.Pattern == "" {
			return &ConfigError{Field: fmt.Sprintf("boosts[%d].pattern", i), Message: "must not be empty"}
		}
		if b.Boost <= 0 {
			return &ConfigError{Field: fmt.Sprintf("boosts[%d].boost", i), Message: "must be positive"}
		}
	}
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return &ConfigError{Field: fmt.Sprintf("categories[%d].name", i), Message: "must not be empty"}
		}
	}
	if c.Output.Directory == "" {
		return &ConfigError{Field: "output.directory", Message: "must not be empty"}
	}
	files := []struct {
		field string
		name  string
	}{
		{"output.files.skeleton", c.Output.Files.Skeleton},
		{"output.files.signatures", c.Output.Files.Signatures},
		{"output.files.relations", c.Output.Files.Relations},
		{"output.files.meta", c.Output.Files.Meta},
	}
	for _, f := range files {
		if f.name == "" {
			return &ConfigError{Field: f.field, Message: "must not be empty"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
