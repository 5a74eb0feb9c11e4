package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 48, cfg.Indexing.BatchSize)
	assert.Equal(t, 500_000, cfg.Tokenizer.MaxDocChars)
	assert.Equal(t, 32768, cfg.Tokenizer.MaxTermBytes)
	assert.Equal(t, "30s", cfg.Tokenizer.OneShotTimeout)
	assert.Equal(t, 100, cfg.Search.MaxResults)
	assert.Equal(t, 64, cfg.Search.MaxQueryTerms)
	assert.Equal(t, 2.5, cfg.Search.FilenameBoost)
	assert.Equal(t, 100, cfg.Search.FragmentSize)
	assert.Equal(t, 5, cfg.Search.MaxFragments)
	assert.Equal(t, "500ms", cfg.Watch.Debounce)
	assert.Contains(t, cfg.Indexing.Extensions, ".txt")
	assert.Contains(t, cfg.Indexing.Extensions, ".md")
}

func TestNewConfig_Validates(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
}

func TestConfig_DerivedPaths(t *testing.T) {
	cfg := NewConfig()
	cfg.IndexDir = "/data/idx"

	assert.Equal(t, filepath.Join("/data/idx", "index.bleve"), cfg.IndexPath())
	assert.Equal(t, filepath.Join("/data/idx", "catalog.db"), cfg.CatalogPath())
	assert.Equal(t, filepath.Join("/data/idx", "sagasu.lock"), cfg.LockPath())
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
	assert.Equal(t, 30*time.Second, cfg.TokenizerTimeout())

	cfg.Watch.Debounce = "2s"
	cfg.Tokenizer.OneShotTimeout = "1m"
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce())
	assert.Equal(t, time.Minute, cfg.TokenizerTimeout())

	cfg.Watch.Debounce = "garbage"
	cfg.Tokenizer.OneShotTimeout = "garbage"
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
	assert.Equal(t, 30*time.Second, cfg.TokenizerTimeout())
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
version: 1
folders:
  - /data/docs
index_dir: /data/idx
indexing:
  batch_size: 16
search:
  max_results: 25
  filename_boost: 3.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sagasu.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/docs"}, cfg.Folders)
	assert.Equal(t, "/data/idx", cfg.IndexDir)
	assert.Equal(t, 16, cfg.Indexing.BatchSize)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, 3.0, cfg.Search.FilenameBoost)
	// Untouched fields keep defaults
	assert.Equal(t, 64, cfg.Search.MaxQueryTerms)
	assert.Equal(t, "30s", cfg.Tokenizer.OneShotTimeout)
}

func TestLoad_YmlFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sagasu.yml"), []byte("index_dir: /from/yml\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/from/yml", cfg.IndexDir)
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.Indexing.BatchSize)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sagasu.yaml"), []byte("indexing: [not a map"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SAGASU_INDEX_DIR", "/env/idx")
	t.Setenv("SAGASU_LOG_LEVEL", "debug")
	t.Setenv("SAGASU_BATCH_SIZE", "7")
	t.Setenv("SAGASU_MAX_RESULTS", "13")
	t.Setenv("SAGASU_TOKENIZER_CMD", "python3 /opt/tok.py")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/env/idx", cfg.IndexDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Indexing.BatchSize)
	assert.Equal(t, 13, cfg.Search.MaxResults)
	assert.Equal(t, []string{"python3", "/opt/tok.py"}, cfg.Tokenizer.Command)
}

func TestLoad_EnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SAGASU_BATCH_SIZE", "not-a-number")
	t.Setenv("SAGASU_MAX_RESULTS", "-5")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Indexing.BatchSize)
	assert.Equal(t, 100, cfg.Search.MaxResults)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch size", func(c *Config) { c.Indexing.BatchSize = 0 }},
		{"negative max results", func(c *Config) { c.Search.MaxResults = -1 }},
		{"zero max query terms", func(c *Config) { c.Search.MaxQueryTerms = 0 }},
		{"zero filename boost", func(c *Config) { c.Search.FilenameBoost = 0 }},
		{"zero max term bytes", func(c *Config) { c.Tokenizer.MaxTermBytes = 0 }},
		{"zero max doc chars", func(c *Config) { c.Tokenizer.MaxDocChars = 0 }},
		{"empty tokenizer command", func(c *Config) { c.Tokenizer.Command = nil }},
		{"bad timeout", func(c *Config) { c.Tokenizer.OneShotTimeout = "never" }},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "sometimes" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"extension without dot", func(c *Config) { c.Indexing.Extensions = []string{"txt"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := NewConfig()
	cfg.Folders = []string{"/data/docs"}
	cfg.Search.MaxResults = 42
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))

	assert.Equal(t, []string{"/data/docs"}, loaded.Folders)
	assert.Equal(t, 42, loaded.Search.MaxResults)
}

func TestGetUserConfigPath_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	assert.Equal(t, filepath.Join("/custom/xdg", "sagasu", "config.yaml"), GetUserConfigPath())
}
