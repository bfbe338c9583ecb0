// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mdmend/internal/core/paths"
	"mdmend/internal/core/schema"
)

// Constants for default paths
const (
	DefaultConfigDir      = ".mdmend"
	DefaultConfigFileName = "config.yaml"
)

// Config holds the per-project configuration loaded from
// .mdmend/config.yaml.
type Config struct {
	// DataDirs are the candidate directories scanned for data files, in
	// lookup order (earlier entries win). Relative entries are resolved
	// against the project directory.
	DataDirs []string `yaml:"data_dirs"`

	// DataExtensions overrides the recognized data-file extensions.
	DataExtensions []string `yaml:"data_extensions"`

	// LoaderCalls overrides the data-loading call allow-list used by the
	// path rewriter.
	LoaderCalls []string `yaml:"loader_calls"`

	// SkipBlocks is an optional CEL rule; matching blocks are not
	// executed (and not mutated).
	SkipBlocks string `yaml:"skip_blocks"`

	// Workers bounds batch parallelism. Documents never share state, so
	// this is purely a resource knob.
	Workers int `yaml:"workers"`

	// Output governance limits injected into the setup block.
	MaxPrintLines int `yaml:"max_print_lines"`
	MaxPrintBytes int `yaml:"max_print_bytes"`

	// RenderTheme is passed to the renderer collaborator.
	RenderTheme string `yaml:"render_theme"`
}

// NewDefaultConfig creates a default configuration.
func NewDefaultConfig() *Config {
	return &Config{
		DataDirs:       []string{"data", "raw_data", "input"},
		DataExtensions: paths.DefaultExtensions,
		Workers:        4,
		MaxPrintLines:  200,
		MaxPrintBytes:  1 << 16,
		RenderTheme:    "auto",
	}
}

// LoadConfig loads the project configuration, starting from defaults and
// merging the project file on top. A missing config file is not an error;
// a malformed or schema-invalid one is.
func LoadConfig(projectDir string) (*Config, error) {
	cfg := NewDefaultConfig()

	configPath := filepath.Join(projectDir, DefaultConfigDir, DefaultConfigFileName)
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file '%s': %w", configPath, err)
	}

	// Validate the raw shape first so unknown keys and wrong types are
	// caught before unmarshaling drops them on the floor.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", configPath, err)
	}
	if raw != nil {
		if err := schema.ValidateConfig(raw); err != nil {
			return nil, fmt.Errorf("config file '%s': %w", configPath, err)
		}
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", configPath, err)
	}

	mergeConfigs(cfg, loaded)
	return cfg, nil
}

// mergeConfigs merges source into target; only non-zero values override.
func mergeConfigs(target, source *Config) {
	if len(source.DataDirs) > 0 {
		target.DataDirs = source.DataDirs
	}
	if len(source.DataExtensions) > 0 {
		target.DataExtensions = source.DataExtensions
	}
	if len(source.LoaderCalls) > 0 {
		target.LoaderCalls = source.LoaderCalls
	}
	if source.SkipBlocks != "" {
		target.SkipBlocks = source.SkipBlocks
	}
	if source.Workers > 0 {
		target.Workers = source.Workers
	}
	if source.MaxPrintLines > 0 {
		target.MaxPrintLines = source.MaxPrintLines
	}
	if source.MaxPrintBytes > 0 {
		target.MaxPrintBytes = source.MaxPrintBytes
	}
	if source.RenderTheme != "" {
		target.RenderTheme = source.RenderTheme
	}
}

// SaveConfig writes the configuration under the project directory, creating
// .mdmend/ as needed.
func SaveConfig(cfg *Config, projectDir string) error {
	configDir := filepath.Join(projectDir, DefaultConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory '%s': %w", configDir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFileName)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file '%s': %w", configPath, err)
	}

	return nil
}

// ResolveDataDirs expands and anchors the candidate data directories against
// the directory the document lives in, preserving order.
func (c *Config) ResolveDataDirs(docDir string) []string {
	dirs := make([]string, 0, len(c.DataDirs))
	for _, dir := range c.DataDirs {
		dir = ExpandPathWithTilde(dir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(docDir, dir)
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// PrimaryDataDir is the fallback root the path primitive joins against when
// a filename is not in the mapping: the first candidate directory.
func (c *Config) PrimaryDataDir(docDir string) string {
	dirs := c.ResolveDataDirs(docDir)
	if len(dirs) == 0 {
		return docDir
	}
	return dirs[0]
}

// ExpandPathWithTilde expands ~ to the user home directory. It respects the
// MDMEND_HOME environment variable for testing purposes.
func ExpandPathWithTilde(path string) string {
	if path == "~" {
		if home := getHomeDir(); home != "" {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home := getHomeDir(); home != "" {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func getHomeDir() string {
	if mdmendHome := os.Getenv("MDMEND_HOME"); mdmendHome != "" {
		return mdmendHome
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
