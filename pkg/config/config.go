// Package config loads shared settings for the ffmeta tools.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tstromberg/ffmeta/pkg/selector"
)

// Config holds settings shared by the commands. Flags override it.
type Config struct {
	// ExifTool is the path to the exiftool binary. Empty means look it up in PATH.
	ExifTool       string           `yaml:"exiftool"`
	OutputDir      string           `yaml:"output_dir"`
	FilenamePrefix string           `yaml:"filename_prefix"`
	Software       string           `yaml:"software"`
	Pattern        string           `yaml:"pattern"`
	SortBy         selector.SortKey `yaml:"sort_by"`
	SortOrder      selector.Order   `yaml:"sort_order"`
	Recursive      bool             `yaml:"recursive"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		OutputDir:      ".",
		FilenamePrefix: "ComfyUI",
		Software:       "ffmeta",
		Pattern:        "*.png,*.jpg,*.jpeg",
		SortBy:         selector.ByModified,
		SortOrder:      selector.Descending,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	switch c.SortBy {
	case selector.ByModified, selector.ByCreated, selector.BySize, selector.ByName:
	default:
		return nil, fmt.Errorf("config %s: unknown sort_by %q", path, c.SortBy)
	}
	switch c.SortOrder {
	case selector.Ascending, selector.Descending:
	default:
		return nil, fmt.Errorf("config %s: unknown sort_order %q", path, c.SortOrder)
	}
	return c, nil
}
