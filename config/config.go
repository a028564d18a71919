// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: User configuration loaded from file and environment,
// converted into engine options.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gridmux/gridmux/grid"
)

const (
	defaultShell           = "/bin/sh"
	defaultCloseRootPolicy = "replace"
	defaultMinPaneFraction = 0.05
	defaultMaxRetries      = 3
	defaultBaseDelayMs     = 250
	defaultBackoffFactor   = 2.0
	defaultSelectIdleMs    = 3000
)

// Config holds the user-facing settings.
type Config struct {
	Shell           string  `mapstructure:"shell"`
	DefaultContent  string  `mapstructure:"default_content"`
	CloseRootPolicy string  `mapstructure:"close_root_policy"`
	MinPaneFraction float64 `mapstructure:"min_pane_fraction"`
	MaxRetries      int     `mapstructure:"max_retries"`
	BaseDelayMs     int     `mapstructure:"base_delay_ms"`
	BackoffFactor   float64 `mapstructure:"backoff_factor"`
	SelectIdleMs    int     `mapstructure:"select_idle_ms"`
	LayoutDBPath    string  `mapstructure:"layout_db_path"`
	LogFile         string  `mapstructure:"log_file"`
}

// Load reads configuration from file and env. Env var overrides use
// prefix GRIDMUX_.
func Load() (*Config, error) {
	v := viper.New()

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = defaultShell
	}
	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "gridmux")

	v.SetDefault("shell", shell)
	v.SetDefault("default_content", "shell")
	v.SetDefault("close_root_policy", defaultCloseRootPolicy)
	v.SetDefault("min_pane_fraction", defaultMinPaneFraction)
	v.SetDefault("max_retries", defaultMaxRetries)
	v.SetDefault("base_delay_ms", defaultBaseDelayMs)
	v.SetDefault("backoff_factor", defaultBackoffFactor)
	v.SetDefault("select_idle_ms", defaultSelectIdleMs)
	v.SetDefault("layout_db_path", filepath.Join(dataDir, "layouts.db"))
	v.SetDefault("log_file", filepath.Join(dataDir, "gridmux.log"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "gridmux"))
	}
	v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "gridmux"))

	v.SetEnvPrefix("GRIDMUX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.CloseRootPolicy {
	case "replace", "reject":
	default:
		return fmt.Errorf("close_root_policy %q: must be replace or reject", c.CloseRootPolicy)
	}
	if c.MinPaneFraction < 0 || c.MinPaneFraction >= 0.5 {
		return fmt.Errorf("min_pane_fraction %v: must be in [0, 0.5)", c.MinPaneFraction)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries %d: must not be negative", c.MaxRetries)
	}
	if c.BackoffFactor < 1 {
		return fmt.Errorf("backoff_factor %v: must be at least 1", c.BackoffFactor)
	}
	return nil
}

// Options converts the configuration into engine options.
func (c *Config) Options() grid.Options {
	opts := grid.DefaultOptions()
	if c.CloseRootPolicy == "reject" {
		opts.CloseRoot = grid.CloseRootReject
	}
	opts.MinPaneFraction = c.MinPaneFraction
	opts.DefaultContent = grid.ContentDescriptor{Type: c.DefaultContent}
	opts.Retry = grid.RetryPolicy{
		MaxRetries:    c.MaxRetries,
		BaseDelay:     time.Duration(c.BaseDelayMs) * time.Millisecond,
		BackoffFactor: c.BackoffFactor,
	}
	opts.SelectIdle = time.Duration(c.SelectIdleMs) * time.Millisecond
	return opts
}
