// Package config loads the engine configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/tonehive/fpmatch/pkg/matcher"
)

// Config is the root configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Index   IndexConfig   `yaml:"index"`
	Matcher MatcherConfig `yaml:"matcher"`
}

// StoreConfig configures the exact fingerprint store.
type StoreConfig struct {
	// Dir is the BadgerDB data directory.
	Dir string `yaml:"dir"`

	// InMemory runs the store without persistence. Dir is ignored.
	InMemory bool `yaml:"in_memory"`
}

// IndexConfig configures the candidate index.
type IndexConfig struct {
	// Snapshot is the path the index persists to on shutdown and loads
	// from on startup. Empty disables persistence.
	Snapshot string `yaml:"snapshot"`
}

// MatcherConfig tunes the match classifier.
type MatcherConfig struct {
	Elbow   int `yaml:"elbow"`
	Slop    int `yaml:"slop"`
	MaxRows int `yaml:"max_rows"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Store: StoreConfig{Dir: "data/store"},
		Index: IndexConfig{Snapshot: "data/index.snap"},
		Matcher: MatcherConfig{
			Elbow:   matcher.DefaultElbow,
			Slop:    matcher.DefaultSlop,
			MaxRows: matcher.DefaultMaxRows,
		},
	}
}

// Load reads a YAML configuration file, applying [Default] values for
// fields the file leaves unset. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
