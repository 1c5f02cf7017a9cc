// Package config loads docfold's configuration via viper, layering
// defaults, an optional YAML config file, and DOCFOLD_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/docfold/docfold/internal/tokenizer"
)

// Config is the root configuration structure.
type Config struct {
	LogLevel  string          `yaml:"log_level" mapstructure:"log_level"`
	LogFile   string          `yaml:"log_file" mapstructure:"log_file"`
	Tokenizer TokenizerConfig `yaml:"tokenizer" mapstructure:"tokenizer"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
}

// TokenizerConfig selects the encoding used for all token budgets.
type TokenizerConfig struct {
	Model string `yaml:"model" mapstructure:"model"`
}

// ChunkingConfig holds the reduction and splitting budgets, in tokens.
type ChunkingConfig struct {
	TargetTokens int `yaml:"target_tokens" mapstructure:"target_tokens"`
	SplitSize    int `yaml:"split_size" mapstructure:"split_size"`
	SplitOverlap int `yaml:"split_overlap" mapstructure:"split_overlap"`
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Tokenizer: TokenizerConfig{
			Model: tokenizer.DefaultModel,
		},
		Chunking: ChunkingConfig{
			TargetTokens: 256,
			SplitSize:    256,
			SplitOverlap: 20,
		},
	}
}

func setViperDefaults(v *viper.Viper) {
	defaults := NewDefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("tokenizer.model", defaults.Tokenizer.Model)
	v.SetDefault("chunking.target_tokens", defaults.Chunking.TargetTokens)
	v.SetDefault("chunking.split_size", defaults.Chunking.SplitSize)
	v.SetDefault("chunking.split_overlap", defaults.Chunking.SplitOverlap)
}

// Load reads the typed configuration. Config files are searched in
// DOCFOLD_CONFIG_DIR, ~/.config/docfold, then the working directory; a
// missing file falls back to defaults, an invalid one is an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DOCFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setViperDefaults(v)

	if envPath := os.Getenv("DOCFOLD_CONFIG_DIR"); envPath != "" {
		v.AddConfigPath(envPath)
	}
	if home := os.Getenv("HOME"); home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", "docfold"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config; %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var current *Config

// Init loads the configuration into the package-level instance.
func Init() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	current = cfg
	return nil
}

// Get returns the loaded configuration, or defaults when Init has not
// run (library use, tests).
func Get() *Config {
	if current == nil {
		defaults := NewDefaultConfig()
		return &defaults
	}
	return current
}

// Validate checks the configuration's numeric invariants.
func Validate(cfg *Config) error {
	if cfg.Chunking.TargetTokens <= 0 {
		return fmt.Errorf("config: chunking.target_tokens must be positive, got %d", cfg.Chunking.TargetTokens)
	}
	if cfg.Chunking.SplitSize <= 0 {
		return fmt.Errorf("config: chunking.split_size must be positive, got %d", cfg.Chunking.SplitSize)
	}
	if cfg.Chunking.SplitOverlap < 0 {
		return fmt.Errorf("config: chunking.split_overlap cannot be negative, got %d", cfg.Chunking.SplitOverlap)
	}
	if cfg.Chunking.SplitOverlap >= cfg.Chunking.SplitSize {
		return fmt.Errorf("config: chunking.split_overlap %d must be smaller than split_size %d",
			cfg.Chunking.SplitOverlap, cfg.Chunking.SplitSize)
	}
	return nil
}
