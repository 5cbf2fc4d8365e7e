/*
Package config manages TOML config for the docsearch console.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/mvillard/docsearch/internal/utils"
)

// Config holds the entire config structure
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Suggest SuggestConfig `toml:"suggest"`
	Snippet SnippetConfig `toml:"snippet"`
	Cloud   CloudConfig   `toml:"cloud"`
}

// SearchConfig has search session options.
type SearchConfig struct {
	PageSize int    `toml:"page_size"`
	BaseURL  string `toml:"base_url"`
}

// SuggestConfig holds autocomplete options.
type SuggestConfig struct {
	DebounceMs int `toml:"debounce_ms"`
	MinPrefix  int `toml:"min_prefix"`
	Limit      int `toml:"limit"`
}

// SnippetConfig holds context snippet options.
type SnippetConfig struct {
	Window        int `toml:"window"`
	FallbackWords int `toml:"fallback_words"`
}

// CloudConfig holds word cloud scaling options.
type CloudConfig struct {
	TopN     int     `toml:"top_n"`
	Exponent float64 `toml:"exponent"`
	Scale    float64 `toml:"scale"`
	Offset   float64 `toml:"offset"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "docsearch")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	// Not conventional, fallback from ~/.config if not writable
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "docsearch")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/docsearch/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			PageSize: 5,
			BaseURL:  "http://localhost:5000",
		},
		Suggest: SuggestConfig{
			DebounceMs: 300,
			MinPrefix:  2,
			Limit:      15,
		},
		Snippet: SnippetConfig{
			Window:        40,
			FallbackWords: 50,
		},
		Cloud: CloudConfig{
			TopN:     30,
			Exponent: 0.6,
			Scale:    100,
			Offset:   10,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse attempts to salvage valid sections from a broken file.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "suggest"); ok {
		extractSuggestConfig(section, &config.Suggest)
	}
	if section, ok := utils.ExtractSection(tempConfig, "snippet"); ok {
		extractSnippetConfig(section, &config.Snippet)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cloud"); ok {
		extractCloudConfig(section, &config.Cloud)
	}
	log.Debugf("Partial config recovery from %s complete", configPath)
	return config, nil
}

func extractSearchConfig(section map[string]any, cfg *SearchConfig) {
	if v, ok := utils.ExtractInt(section, "page_size"); ok {
		cfg.PageSize = v
	}
	if v, ok := utils.ExtractString(section, "base_url"); ok {
		cfg.BaseURL = v
	}
}

func extractSuggestConfig(section map[string]any, cfg *SuggestConfig) {
	if v, ok := utils.ExtractInt(section, "debounce_ms"); ok {
		cfg.DebounceMs = v
	}
	if v, ok := utils.ExtractInt(section, "min_prefix"); ok {
		cfg.MinPrefix = v
	}
	if v, ok := utils.ExtractInt(section, "limit"); ok {
		cfg.Limit = v
	}
}

func extractSnippetConfig(section map[string]any, cfg *SnippetConfig) {
	if v, ok := utils.ExtractInt(section, "window"); ok {
		cfg.Window = v
	}
	if v, ok := utils.ExtractInt(section, "fallback_words"); ok {
		cfg.FallbackWords = v
	}
}

func extractCloudConfig(section map[string]any, cfg *CloudConfig) {
	if v, ok := utils.ExtractInt(section, "top_n"); ok {
		cfg.TopN = v
	}
	if v, ok := utils.ExtractFloat(section, "exponent"); ok {
		cfg.Exponent = v
	}
	if v, ok := utils.ExtractFloat(section, "scale"); ok {
		cfg.Scale = v
	}
	if v, ok := utils.ExtractFloat(section, "offset"); ok {
		cfg.Offset = v
	}
}

// SaveConfig writes the config to a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
