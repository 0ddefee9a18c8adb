// Package config loads excise configuration from TOML, YAML or JSON files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for excise.
type Config struct {
	// Annotation settings drive the pruning engine.
	Annotation AnnotationConfig `koanf:"annotation"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// AnnotationConfig controls how annotated code is recognized. The protected
// symbol lists are deliberately NOT configurable; they are a compile-time
// guarantee, not a knob.
type AnnotationConfig struct {
	// Marker is the literal token a comment must contain to mark code for
	// removal in restricted builds.
	Marker string `koanf:"marker"`
	// ModeFlag is the identifier used to guard conditional renders
	// (FLAG && <X/>); annotated guards on this flag collapse to false.
	ModeFlag string `koanf:"mode_flag"`
	// StyleTables lists the table-constructor calls whose entries can be
	// annotated individually, as dotted callee paths.
	StyleTables []string `koanf:"style_tables"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Annotation: AnnotationConfig{
			Marker:      "@internal-only",
			ModeFlag:    "__INTERNAL__",
			StyleTables: []string{"StyleSheet.create"},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.test.js",
				"*.test.ts",
				"*.test.tsx",
				"*.spec.js",
				"*.spec.ts",
				"*.min.js",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".excise",
				"dist",
				"build",
				"vendor",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".excise/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns
// defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"excise.toml",
		"excise.yaml",
		"excise.yml",
		"excise.json",
		".excise.toml",
		".excise.yaml",
		".excise.yml",
		".excise.json",
	}

	searchDirs := []string{".", ".excise"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from processing.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
