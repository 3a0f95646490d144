package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoSettingsFile(t *testing.T) {
	root := t.TempDir()
	v := viper.New()

	settings, err := Load(v, root)
	require.NoError(t, err)
	assert.Equal(t, ".codeindex/index", settings.IndexPath)
	assert.Equal(t, root, settings.WorkspaceRoot)
	assert.Equal(t, "stdio", settings.Server.Mode)
	assert.Greater(t, settings.Indexing.ParallelThreads, 0)
}

func TestLoadLayersSettingsTomlOverDefaults(t *testing.T) {
	root := t.TempDir()
	toml := `
index_path = "custom/index"

[indexing]
parallel_threads = 4
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "settings.toml"), []byte(toml), 0o644))

	v := viper.New()
	settings, err := Load(v, root)
	require.NoError(t, err)

	assert.Equal(t, "custom/index", settings.IndexPath)
	assert.Equal(t, 4, settings.Indexing.ParallelThreads)
	// Fields left unset in settings.toml keep their default value, proof
	// MergeConfig layers rather than replaces.
	assert.NotEmpty(t, settings.Indexing.IgnorePatterns)
	assert.Equal(t, "stdio", settings.Server.Mode)
}

func TestLoadRejectsInvalidServerMode(t *testing.T) {
	root := t.TempDir()
	toml := `
[server]
mode = "carrier-pigeon"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "settings.toml"), []byte(toml), 0o644))

	v := viper.New()
	_, err := Load(v, root)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "settings.toml"), []byte("not = [valid"), 0o644))

	v := viper.New()
	_, err := Load(v, root)
	assert.Error(t, err)
}
