// Package config provides configuration management for somafm using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultDirectoryURL   = "https://somafm.com/channels.json"
	DefaultFetchTimeout   = 15 * time.Second
	DefaultSnapshotName   = "soma_channels"
	DefaultPlayerBinary   = "mplayer"
	DefaultChannel        = "Groove Salad"
	DefaultQuality        = 0
	URLPlaceholder        = "{url}"
	defaultLogLevel       = "warn"
	defaultLogFormat      = "text"
	defaultSnapshotDriver = "file"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SOMAFM"

// Config holds all configuration for the application.
type Config struct {
	Directory DirectoryConfig `mapstructure:"directory"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Player    PlayerConfig    `mapstructure:"player"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DirectoryConfig holds the channel directory endpoint configuration.
type DirectoryConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SnapshotConfig holds the local channel snapshot configuration.
type SnapshotConfig struct {
	Driver string `mapstructure:"driver"` // file, sqlite
	Path   string `mapstructure:"path"`
}

// PlayerConfig holds external media player configuration.
type PlayerConfig struct {
	Binary string `mapstructure:"binary"`
	// Args are passed to the player; every "{url}" element is replaced by the stream URL.
	Args       []string `mapstructure:"args"`
	KillByName bool     `mapstructure:"kill_by_name"`
}

// PlaybackConfig holds defaults for play mode.
type PlaybackConfig struct {
	DefaultChannel string `mapstructure:"default_channel"`
	Quality        int    `mapstructure:"quality"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with SOMAFM_ and use underscores for nesting.
// Example: SOMAFM_PLAYER_BINARY=mpv.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".somafm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("directory.url", DefaultDirectoryURL)
	v.SetDefault("directory.timeout", DefaultFetchTimeout)

	v.SetDefault("snapshot.driver", defaultSnapshotDriver)
	v.SetDefault("snapshot.path", DefaultSnapshotPath())

	v.SetDefault("player.binary", DefaultPlayerBinary)
	v.SetDefault("player.args", []string{"-playlist", URLPlaceholder})
	v.SetDefault("player.kill_by_name", true)

	v.SetDefault("playback.default_channel", DefaultChannel)
	v.SetDefault("playback.quality", DefaultQuality)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.format", defaultLogFormat)
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
}

// DefaultSnapshotPath returns the well-known snapshot location in the system temp directory.
func DefaultSnapshotPath() string {
	return filepath.Join(os.TempDir(), DefaultSnapshotName)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Directory.URL == "" {
		return fmt.Errorf("directory.url is required")
	}
	if c.Directory.Timeout <= 0 {
		return fmt.Errorf("directory.timeout must be positive")
	}

	validDrivers := map[string]bool{"file": true, "sqlite": true}
	if !validDrivers[c.Snapshot.Driver] {
		return fmt.Errorf("snapshot.driver must be one of: file, sqlite")
	}
	if c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required")
	}

	if c.Player.Binary == "" {
		return fmt.Errorf("player.binary is required")
	}
	if !c.Player.HasURLPlaceholder() {
		return fmt.Errorf("player.args must contain %s", URLPlaceholder)
	}

	if c.Playback.Quality < 0 {
		return fmt.Errorf("playback.quality must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// HasURLPlaceholder reports whether any player argument carries the stream URL placeholder.
func (c *PlayerConfig) HasURLPlaceholder() bool {
	for _, arg := range c.Args {
		if strings.Contains(arg, URLPlaceholder) {
			return true
		}
	}
	return false
}

// ExpandArgs returns the player arguments with the URL placeholder substituted.
func (c *PlayerConfig) ExpandArgs(streamURL string) []string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = strings.ReplaceAll(arg, URLPlaceholder, streamURL)
	}
	return args
}
