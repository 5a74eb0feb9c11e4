// Package config loads and validates sagasu configuration.
//
// Configuration is applied in order of increasing precedence: built-in
// defaults, the user config (~/.config/sagasu/config.yaml), a project
// config (.sagasu.yaml in the working directory), then SAGASU_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete sagasu configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Folders   []string        `yaml:"folders" json:"folders"`
	IndexDir  string          `yaml:"index_dir" json:"index_dir"`
	Tokenizer TokenizerConfig `yaml:"tokenizer" json:"tokenizer"`
	Indexing  IndexingConfig  `yaml:"indexing" json:"indexing"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// TokenizerConfig configures the external morphological analyzer process.
type TokenizerConfig struct {
	// Command is the analyzer command line, e.g. ["python3", "tools/sudachi_tokenize.py"].
	// The streaming flag is appended by the session itself.
	Command []string `yaml:"command" json:"command"`

	// OneShotTimeout bounds a single one-shot analyzer invocation (e.g. "30s").
	OneShotTimeout string `yaml:"one_shot_timeout" json:"one_shot_timeout"`

	// MaxTermBytes is the maximum UTF-8 byte length of a single indexed term.
	// Longer terms are split at rune boundaries.
	MaxTermBytes int `yaml:"max_term_bytes" json:"max_term_bytes"`

	// MaxDocChars is the maximum number of characters sent per document.
	// Longer content is truncated before analysis.
	MaxDocChars int `yaml:"max_doc_chars" json:"max_doc_chars"`
}

// IndexingConfig configures index construction.
type IndexingConfig struct {
	// BatchSize is the number of documents tokenized and indexed per batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// MaxFileSizeMB skips files larger than this many megabytes.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`

	// Extensions is the file extension allow-list (with leading dot).
	// Empty means every extension the extractors can handle.
	Extensions []string `yaml:"extensions" json:"extensions"`
}

// SearchConfig configures query execution and result shaping.
type SearchConfig struct {
	// MaxResults caps the number of hits returned per query.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// MaxQueryTerms caps the number of terms considered from one query.
	MaxQueryTerms int `yaml:"max_query_terms" json:"max_query_terms"`

	// FilenameBoost multiplies the score of filename matches.
	FilenameBoost float64 `yaml:"filename_boost" json:"filename_boost"`

	// FragmentSize is the approximate fragment length in characters.
	FragmentSize int `yaml:"fragment_size" json:"fragment_size"`

	// MaxFragments caps highlight fragments per document.
	MaxFragments int `yaml:"max_fragments" json:"max_fragments"`

	// HighlightDocKB skips re-tokenizing documents larger than this for
	// highlighting; such documents fall back to literal matching only.
	HighlightDocKB int `yaml:"highlight_doc_kb" json:"highlight_doc_kb"`

	// CacheSize is the number of analyzed query terms kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// WatchConfig configures filesystem watching.
type WatchConfig struct {
	// Debounce is the quiet period before a burst of events is processed.
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// defaultExtensions are the file types indexed when no allow-list is set.
var defaultExtensions = []string{
	".txt", ".md", ".markdown", ".csv", ".tsv", ".log",
	".json", ".yaml", ".yml", ".xml", ".html", ".htm",
	".go", ".py", ".js", ".ts", ".java", ".c", ".h", ".cpp", ".rb", ".rs", ".sh",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version:  1,
		Folders:  []string{},
		IndexDir: defaultIndexDir(),
		Tokenizer: TokenizerConfig{
			Command:        []string{"python3", "tools/sudachi_tokenize.py"},
			OneShotTimeout: "30s",
			MaxTermBytes:   32768,
			MaxDocChars:    500_000,
		},
		Indexing: IndexingConfig{
			BatchSize:     48,
			MaxFileSizeMB: 50,
			Extensions:    defaultExtensions,
		},
		Search: SearchConfig{
			MaxResults:     100,
			MaxQueryTerms:  64,
			FilenameBoost:  2.5,
			FragmentSize:   100,
			MaxFragments:   5,
			HighlightDocKB: 256,
			CacheSize:      1000,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "",
		},
	}
}

// defaultIndexDir returns the default index storage directory.
func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".sagasu", "index")
	}
	return filepath.Join(home, ".sagasu", "index")
}

// IndexPath returns the bleve index directory under IndexDir.
func (c *Config) IndexPath() string {
	return filepath.Join(c.IndexDir, "index.bleve")
}

// CatalogPath returns the file catalog database path under IndexDir.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.IndexDir, "catalog.db")
}

// LockPath returns the writer lock file path under IndexDir.
func (c *Config) LockPath() string {
	return filepath.Join(c.IndexDir, "sagasu.lock")
}

// WatchDebounce parses the watch debounce interval, falling back to 500ms.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// TokenizerTimeout parses the one-shot timeout, falling back to 30s.
func (c *Config) TokenizerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Tokenizer.OneShotTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// MaxFileSizeBytes returns the per-file size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Indexing.MaxFileSizeMB) * 1024 * 1024
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory conventions:
//   - $XDG_CONFIG_HOME/sagasu/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/sagasu/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sagasu", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "sagasu", "config.yaml")
	}
	return filepath.Join(home, ".config", "sagasu", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration for the given project directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/sagasu/config.yaml)
//  3. Project config (.sagasu.yaml in dir)
//  4. Environment variables (SAGASU_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .sagasu.yaml or .sagasu.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".sagasu.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".sagasu.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine, defaults apply
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Folders) > 0 {
		c.Folders = other.Folders
	}
	if other.IndexDir != "" {
		c.IndexDir = other.IndexDir
	}

	// Tokenizer
	if len(other.Tokenizer.Command) > 0 {
		c.Tokenizer.Command = other.Tokenizer.Command
	}
	if other.Tokenizer.OneShotTimeout != "" {
		c.Tokenizer.OneShotTimeout = other.Tokenizer.OneShotTimeout
	}
	if other.Tokenizer.MaxTermBytes != 0 {
		c.Tokenizer.MaxTermBytes = other.Tokenizer.MaxTermBytes
	}
	if other.Tokenizer.MaxDocChars != 0 {
		c.Tokenizer.MaxDocChars = other.Tokenizer.MaxDocChars
	}

	// Indexing
	if other.Indexing.BatchSize != 0 {
		c.Indexing.BatchSize = other.Indexing.BatchSize
	}
	if other.Indexing.MaxFileSizeMB != 0 {
		c.Indexing.MaxFileSizeMB = other.Indexing.MaxFileSizeMB
	}
	if len(other.Indexing.Extensions) > 0 {
		c.Indexing.Extensions = other.Indexing.Extensions
	}

	// Search
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.MaxQueryTerms != 0 {
		c.Search.MaxQueryTerms = other.Search.MaxQueryTerms
	}
	if other.Search.FilenameBoost != 0 {
		c.Search.FilenameBoost = other.Search.FilenameBoost
	}
	if other.Search.FragmentSize != 0 {
		c.Search.FragmentSize = other.Search.FragmentSize
	}
	if other.Search.MaxFragments != 0 {
		c.Search.MaxFragments = other.Search.MaxFragments
	}
	if other.Search.HighlightDocKB != 0 {
		c.Search.HighlightDocKB = other.Search.HighlightDocKB
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	// Watch
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
}

// applyEnvOverrides applies SAGASU_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SAGASU_INDEX_DIR"); v != "" {
		c.IndexDir = v
	}
	if v := os.Getenv("SAGASU_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SAGASU_TOKENIZER_CMD"); v != "" {
		c.Tokenizer.Command = strings.Fields(v)
	}
	if v := os.Getenv("SAGASU_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexing.BatchSize = n
		}
	}
	if v := os.Getenv("SAGASU_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Indexing.BatchSize <= 0 {
		return fmt.Errorf("indexing.batch_size must be positive, got %d", c.Indexing.BatchSize)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.MaxQueryTerms <= 0 {
		return fmt.Errorf("search.max_query_terms must be positive, got %d", c.Search.MaxQueryTerms)
	}
	if c.Search.FilenameBoost <= 0 {
		return fmt.Errorf("search.filename_boost must be positive, got %f", c.Search.FilenameBoost)
	}
	if c.Tokenizer.MaxTermBytes <= 0 {
		return fmt.Errorf("tokenizer.max_term_bytes must be positive, got %d", c.Tokenizer.MaxTermBytes)
	}
	if c.Tokenizer.MaxDocChars <= 0 {
		return fmt.Errorf("tokenizer.max_doc_chars must be positive, got %d", c.Tokenizer.MaxDocChars)
	}
	if len(c.Tokenizer.Command) == 0 {
		return fmt.Errorf("tokenizer.command must not be empty")
	}
	if c.Tokenizer.OneShotTimeout != "" {
		if _, err := time.ParseDuration(c.Tokenizer.OneShotTimeout); err != nil {
			return fmt.Errorf("tokenizer.one_shot_timeout is not a valid duration: %q", c.Tokenizer.OneShotTimeout)
		}
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce is not a valid duration: %q", c.Watch.Debounce)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	for _, ext := range c.Indexing.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("indexing.extensions entries must start with a dot, got %q", ext)
		}
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
