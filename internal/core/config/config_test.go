// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, projectDir, content string) {
	t.Helper()
	dir := filepath.Join(projectDir, DefaultConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFileName), []byte(content), 0644))
}

func TestLoadConfigDefaults(t *testing.T) {
	// No config file at all: pure defaults.
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []string{"data", "raw_data", "input"}, cfg.DataDirs)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 200, cfg.MaxPrintLines)
	assert.Equal(t, 1<<16, cfg.MaxPrintBytes)
	assert.Equal(t, "auto", cfg.RenderTheme)
	assert.Empty(t, cfg.SkipBlocks)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "data_dirs:\n  - datasets\nworkers: 8\nskip_blocks: \"block.index > 40\"\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"datasets"}, cfg.DataDirs)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "block.index > 40", cfg.SkipBlocks)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 200, cfg.MaxPrintLines)
	assert.Equal(t, "auto", cfg.RenderTheme)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "workres: 8\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigRejectsWrongTypes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "workers: many\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "data_dirs: [unclosed\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.Workers = 2
	cfg.SkipBlocks = "block.lines > 100"
	require.NoError(t, SaveConfig(cfg, dir))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestResolveDataDirs(t *testing.T) {
	cfg := &Config{DataDirs: []string{"data", "/abs/data"}}

	dirs := cfg.ResolveDataDirs("/project/docs")
	assert.Equal(t, []string{"/project/docs/data", "/abs/data"}, dirs)
}

func TestResolveDataDirsExpandsTilde(t *testing.T) {
	t.Setenv("MDMEND_HOME", "/fake/home")

	cfg := &Config{DataDirs: []string{"~/shared"}}
	dirs := cfg.ResolveDataDirs("/project")
	assert.Equal(t, []string{"/fake/home/shared"}, dirs)
}

func TestPrimaryDataDir(t *testing.T) {
	cfg := &Config{DataDirs: []string{"data", "raw_data"}}
	assert.Equal(t, "/project/data", cfg.PrimaryDataDir("/project"))

	empty := &Config{}
	assert.Equal(t, "/project", empty.PrimaryDataDir("/project"))
}

func TestExpandPathWithTilde(t *testing.T) {
	t.Setenv("MDMEND_HOME", "/fake/home")

	assert.Equal(t, "/fake/home", ExpandPathWithTilde("~"))
	assert.Equal(t, "/fake/home/data", ExpandPathWithTilde("~/data"))
	assert.Equal(t, "plain/data", ExpandPathWithTilde("plain/data"))
}
