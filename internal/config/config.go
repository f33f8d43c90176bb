// Package config loads and validates the askdoc configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/askdoc/config.yaml)
//  3. Project config (./askdoc.yaml) or an explicit --config path
//  4. Environment variables (ASKDOC_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete askdoc configuration.
type Config struct {
	// DataDir is the directory holding the persisted index pair.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// APIKeyEnv names the environment variable consulted for the API key.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	Embedder  EmbedderConfig  `yaml:"embedder" json:"embedder"`
	Generator GeneratorConfig `yaml:"generator" json:"generator"`
	Query     QueryConfig     `yaml:"query" json:"query"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	// Provider selects the embedding backend: "openai" or "static".
	Provider string `yaml:"provider" json:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`
	// Dimensions is the embedding width. The index is built at this
	// width, so changing it invalidates persisted state.
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// BaseURL overrides the API endpoint (OpenAI-compatible servers).
	BaseURL string `yaml:"base_url" json:"base_url"`
	// TimeoutSecs is the per-request timeout.
	TimeoutSecs int `yaml:"timeout_secs" json:"timeout_secs"`
	// CacheSize is the embedding LRU cache capacity. 0 disables caching.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// GeneratorConfig configures the answer generation model.
type GeneratorConfig struct {
	Model string `yaml:"model" json:"model"`
	// Temperature for generation. Fixed at 0.7 by default.
	Temperature float32 `yaml:"temperature" json:"temperature"`
	// MaxTokens caps the generated answer length.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	// BaseURL overrides the API endpoint (OpenAI-compatible servers).
	BaseURL string `yaml:"base_url" json:"base_url"`
	// TimeoutSecs is the per-request timeout.
	TimeoutSecs int `yaml:"timeout_secs" json:"timeout_secs"`
}

// QueryConfig configures retrieval.
type QueryConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `yaml:"top_k" json:"top_k"`
}

// LoggingConfig configures file logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// File is the log file path. Empty uses ~/.askdoc/logs/askdoc.log.
	File string `yaml:"file" json:"file"`
}

// Default returns a Config with defaults.
func Default() *Config {
	return &Config{
		DataDir:   "data",
		APIKeyEnv: "OPENAI_API_KEY",
		Embedder: EmbedderConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-small",
			Dimensions:  512,
			BaseURL:     "",
			TimeoutSecs: 30,
			CacheSize:   1024,
		},
		Generator: GeneratorConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   300,
			BaseURL:     "",
			TimeoutSecs: 60,
		},
		Query: QueryConfig{
			TopK: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// UserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/askdoc/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/askdoc/config.yaml (default)
func UserConfigPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "askdoc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "askdoc")
	}
	return filepath.Join(home, ".config", "askdoc")
}

// Load loads configuration with the documented precedence chain.
// When explicitPath is non-empty it replaces the project config layer
// and must exist.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	if userPath := UserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if explicitPath != "" {
		if err := cfg.loadYAML(explicitPath); err != nil {
			return nil, err
		}
	} else if fileExists("askdoc.yaml") {
		if err := cfg.loadYAML("askdoc.yaml"); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
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
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.APIKeyEnv != "" {
		c.APIKeyEnv = other.APIKeyEnv
	}

	if other.Embedder.Provider != "" {
		c.Embedder.Provider = other.Embedder.Provider
	}
	if other.Embedder.Model != "" {
		c.Embedder.Model = other.Embedder.Model
	}
	if other.Embedder.Dimensions != 0 {
		c.Embedder.Dimensions = other.Embedder.Dimensions
	}
	if other.Embedder.BaseURL != "" {
		c.Embedder.BaseURL = other.Embedder.BaseURL
	}
	if other.Embedder.TimeoutSecs != 0 {
		c.Embedder.TimeoutSecs = other.Embedder.TimeoutSecs
	}
	if other.Embedder.CacheSize != 0 {
		c.Embedder.CacheSize = other.Embedder.CacheSize
	}

	if other.Generator.Model != "" {
		c.Generator.Model = other.Generator.Model
	}
	if other.Generator.Temperature != 0 {
		c.Generator.Temperature = other.Generator.Temperature
	}
	if other.Generator.MaxTokens != 0 {
		c.Generator.MaxTokens = other.Generator.MaxTokens
	}
	if other.Generator.BaseURL != "" {
		c.Generator.BaseURL = other.Generator.BaseURL
	}
	if other.Generator.TimeoutSecs != 0 {
		c.Generator.TimeoutSecs = other.Generator.TimeoutSecs
	}

	if other.Query.TopK != 0 {
		c.Query.TopK = other.Query.TopK
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies ASKDOC_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ASKDOC_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("ASKDOC_EMBEDDER"); v != "" {
		c.Embedder.Provider = v
	}
	if v := os.Getenv("ASKDOC_EMBEDDER_BASE_URL"); v != "" {
		c.Embedder.BaseURL = v
	}
	if v := os.Getenv("ASKDOC_GENERATOR_MODEL"); v != "" {
		c.Generator.Model = v
	}
	if v := os.Getenv("ASKDOC_GENERATOR_BASE_URL"); v != "" {
		c.Generator.BaseURL = v
	}
	if v := os.Getenv("ASKDOC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	validProviders := map[string]bool{"openai": true, "static": true}
	if !validProviders[strings.ToLower(c.Embedder.Provider)] {
		return fmt.Errorf("embedder.provider must be 'openai' or 'static', got %s", c.Embedder.Provider)
	}
	if c.Embedder.Dimensions <= 0 {
		return fmt.Errorf("embedder.dimensions must be positive, got %d", c.Embedder.Dimensions)
	}
	if c.Embedder.TimeoutSecs <= 0 {
		return fmt.Errorf("embedder.timeout_secs must be positive, got %d", c.Embedder.TimeoutSecs)
	}
	if c.Embedder.CacheSize < 0 {
		return fmt.Errorf("embedder.cache_size must be non-negative, got %d", c.Embedder.CacheSize)
	}

	if c.Generator.Temperature < 0 || c.Generator.Temperature > 2 {
		return fmt.Errorf("generator.temperature must be between 0 and 2, got %.2f", c.Generator.Temperature)
	}
	if c.Generator.MaxTokens <= 0 {
		return fmt.Errorf("generator.max_tokens must be positive, got %d", c.Generator.MaxTokens)
	}
	if c.Generator.TimeoutSecs <= 0 {
		return fmt.Errorf("generator.timeout_secs must be positive, got %d", c.Generator.TimeoutSecs)
	}

	if c.Query.TopK <= 0 {
		return fmt.Errorf("query.top_k must be positive, got %d", c.Query.TopK)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// IndexPath returns the path of the binary vector index file.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "vectors.index")
}

// ChunksPath returns the path of the JSON chunks file.
func (c *Config) ChunksPath() string {
	return filepath.Join(c.DataDir, "chunks.json")
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
