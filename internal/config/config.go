// Package config handles dtt configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (DTT_*)
//  2. Config file (<config root>/config.yaml)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/musher-dev/dtt/internal/paths"
)

const (
	// DefaultShellName is the name shown at the start of the prompt.
	DefaultShellName = "dtt"
	// DefaultStatusStaleness is how long a repository status stays fresh.
	DefaultStatusStaleness = 30 * time.Second
	// DefaultKillGrace is the delay between SIGTERM and SIGKILL for kill.
	DefaultKillGrace = 100 * time.Millisecond
	// DefaultHistoryLimit bounds the persisted history.
	DefaultHistoryLimit = 1000
)

// Default prompt colors.
const (
	DefaultShellColor     = "\x1b[1;31m"
	DefaultDirectoryColor = "\x1b[1;34m"
	DefaultBranchColor    = "\x1b[1;33m"
	DefaultGitColor       = "\x1b[1;32m"
)

// Config holds the dtt configuration.
type Config struct {
	v    *viper.Viper
	file string
	// warning is set when the config file exists but could not be read.
	warning error
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	v.SetDefault("shell.name", DefaultShellName)
	v.SetDefault("prompt.full_path", false)
	v.SetDefault("prompt.colors.shell", DefaultShellColor)
	v.SetDefault("prompt.colors.directory", DefaultDirectoryColor)
	v.SetDefault("prompt.colors.branch", DefaultBranchColor)
	v.SetDefault("prompt.colors.git", DefaultGitColor)
	v.SetDefault("status.enabled", true)
	v.SetDefault("status.staleness", DefaultStatusStaleness)
	v.SetDefault("status.watch", true)
	v.SetDefault("jobs.kill_grace", DefaultKillGrace)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.limit", DefaultHistoryLimit)

	cfg := &Config{v: v}

	if file, err := paths.ConfigFile(); err == nil {
		cfg.file = file
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfg.file != "" {
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			cfg.warning = fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError

	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Warning returns the error met while reading an existing config file.
func (c *Config) Warning() error {
	return c.warning
}

// File returns the config file path, which may not exist.
func (c *Config) File() string {
	return c.file
}

// Get returns a configuration value.
func (c *Config) Get(key string) any {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// IsSet reports whether key has a value from any source.
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value any) error {
	if c.file == "" {
		return fmt.Errorf("config file location unknown")
	}

	c.v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(c.file), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := c.v.WriteConfigAs(c.file); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// All returns all configuration as a map.
func (c *Config) All() map[string]any {
	return c.v.AllSettings()
}

// Keys returns every known key in sorted order.
func (c *Config) Keys() []string {
	keys := c.v.AllKeys()
	slices.Sort(keys)

	return keys
}

// Known reports whether key has a built-in default.
func (c *Config) Known(key string) bool {
	return slices.Contains(c.v.AllKeys(), strings.ToLower(key))
}

// ShellName returns the prompt's shell name.
func (c *Config) ShellName() string {
	if name := strings.TrimSpace(c.GetString("shell.name")); name != "" {
		return name
	}

	return DefaultShellName
}

// FullPath reports whether the prompt shows the full directory path.
func (c *Config) FullPath() bool {
	return c.v.GetBool("prompt.full_path")
}

// PromptColors holds the opaque color strings used in the prompt.
type PromptColors struct {
	Shell     string
	Directory string
	Branch    string
	Git       string
}

// Colors returns the configured prompt colors.
func (c *Config) Colors() PromptColors {
	return PromptColors{
		Shell:     c.GetString("prompt.colors.shell"),
		Directory: c.GetString("prompt.colors.directory"),
		Branch:    c.GetString("prompt.colors.branch"),
		Git:       c.GetString("prompt.colors.git"),
	}
}

// StatusEnabled reports whether the repository status cache runs.
func (c *Config) StatusEnabled() bool {
	return c.v.GetBool("status.enabled")
}

// StatusStaleness returns the status cache freshness window.
func (c *Config) StatusStaleness() time.Duration {
	return positive(c.v.GetDuration("status.staleness"), DefaultStatusStaleness)
}

// StatusWatch reports whether .git changes invalidate the status cache.
func (c *Config) StatusWatch() bool {
	return c.v.GetBool("status.watch")
}

// KillGrace returns the delay between SIGTERM and SIGKILL.
func (c *Config) KillGrace() time.Duration {
	return positive(c.v.GetDuration("jobs.kill_grace"), DefaultKillGrace)
}

// HistoryEnabled reports whether history is persisted.
func (c *Config) HistoryEnabled() bool {
	return c.v.GetBool("history.enabled")
}

// HistoryLimit returns the maximum number of remembered commands.
func (c *Config) HistoryLimit() int {
	if n := c.GetInt("history.limit"); n > 0 {
		return n
	}

	return DefaultHistoryLimit
}

func positive(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}

	return fallback
}
