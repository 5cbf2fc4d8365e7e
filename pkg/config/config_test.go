package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.Search.PageSize)
	assert.Equal(t, 300, cfg.Suggest.DebounceMs)
	assert.Equal(t, 2, cfg.Suggest.MinPrefix)
	assert.Equal(t, 15, cfg.Suggest.Limit)
	assert.Equal(t, 40, cfg.Snippet.Window)
	assert.Equal(t, 50, cfg.Snippet.FallbackWords)
	assert.Equal(t, 30, cfg.Cloud.TopN)
	assert.InDelta(t, 0.6, cfg.Cloud.Exponent, 1e-9)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Search.PageSize = 8
	cfg.Search.BaseURL = "http://search.internal:8080"
	cfg.Suggest.DebounceMs = 150
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Search.PageSize)
	assert.Equal(t, "http://search.internal:8080", loaded.Search.BaseURL)
	assert.Equal(t, 150, loaded.Suggest.DebounceMs)
	// Untouched sections keep their defaults.
	assert.Equal(t, 30, loaded.Cloud.TopN)
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.PageSize)
	assert.FileExists(t, path)
}

func TestPartialParseSalvagesValidSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	broken := `
[search]
page_size = 8
base_url = "http://localhost:9999"

[suggest]
debounce_ms = "not a number"
`
	require.NoError(t, os.WriteFile(path, []byte(broken), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	// The valid section survives; the broken one falls back to defaults.
	assert.Equal(t, 8, cfg.Search.PageSize)
	assert.Equal(t, "http://localhost:9999", cfg.Search.BaseURL)
	assert.Equal(t, 300, cfg.Suggest.DebounceMs)
}

func TestLoadConfigWithPriorityPrefersCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\npage_size = 3\n"), 0644))

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 3, cfg.Search.PageSize)
}
