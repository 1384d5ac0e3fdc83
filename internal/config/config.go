// Package config provides Viper-based hierarchical configuration
// management for the engine: defaults, an optional yaml file, and
// STACKNEST_-prefixed environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete engine configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Engine struct {
		DefaultCurrency string `mapstructure:"default_currency" yaml:"default_currency"`
		// TickInterval is the cadence of the periodic scheduler loop.
		TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	} `mapstructure:"engine" yaml:"engine"`

	Matching struct {
		MinConfidence        float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
		AutoConfirmThreshold float64 `mapstructure:"auto_confirm_threshold" yaml:"auto_confirm_threshold"`
		ScanLimit            int     `mapstructure:"scan_limit" yaml:"scan_limit"`
	} `mapstructure:"matching" yaml:"matching"`
}

// LoadEnv loads environment variables from a .env file if one exists.
// Missing files are fine; the process environment always wins.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load reads configuration from the given file (optional), the
// environment, and built-in defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("engine.default_currency", "USD")
	v.SetDefault("engine.tick_interval", time.Hour)
	v.SetDefault("matching.min_confidence", 0.6)
	v.SetDefault("matching.auto_confirm_threshold", 0.95)
	v.SetDefault("matching.scan_limit", 50)

	v.SetEnvPrefix("STACKNEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Matching.MinConfidence < 0 || c.Matching.MinConfidence > 1 {
		return fmt.Errorf("matching.min_confidence must be in [0,1], got %v", c.Matching.MinConfidence)
	}
	if c.Matching.AutoConfirmThreshold < 0 || c.Matching.AutoConfirmThreshold > 1 {
		return fmt.Errorf("matching.auto_confirm_threshold must be in [0,1], got %v", c.Matching.AutoConfirmThreshold)
	}
	if c.Matching.AutoConfirmThreshold < c.Matching.MinConfidence {
		return fmt.Errorf("matching.auto_confirm_threshold (%v) must not be below matching.min_confidence (%v)",
			c.Matching.AutoConfirmThreshold, c.Matching.MinConfidence)
	}
	if c.Matching.ScanLimit <= 0 {
		return fmt.Errorf("matching.scan_limit must be positive, got %d", c.Matching.ScanLimit)
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be positive, got %v", c.Engine.TickInterval)
	}
	return nil
}
