// Package config provides configuration management for wallthemes using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultFetchTimeout        = 2 * time.Minute
	defaultRetryAttempts       = 3
	defaultRetryDelay          = 2 * time.Second
	defaultMaxPackageSize      = "1GB"
	defaultMaxEntrySize        = "256MB"
	defaultMinWidth            = 1920
	defaultMinHeight           = 1080
	defaultBrightnessTolerance = 1
	defaultThumbnailWidth      = 384
	defaultPreviewWidth        = 1920
	defaultPreviewQuality      = 75
)

// EnvPrefix prefixes environment overrides, e.g. WALLTHEMES_CATALOG_PATH.
const EnvPrefix = "WALLTHEMES"

// Fetch methods.
const (
	FetchMethodHTTP   = "http"
	FetchMethodScript = "script"
)

// Config holds all configuration for the application.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Workspace  WorkspaceConfig  `mapstructure:"workspace"`
	Output     OutputConfig     `mapstructure:"output"`
	Private    PrivateConfig    `mapstructure:"private"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Validation ValidationConfig `mapstructure:"validation"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// CatalogConfig locates the generated theme catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// SourcesConfig locates the per-group theme source lists.
type SourcesConfig struct {
	Dir string `mapstructure:"dir"`
}

// WorkspaceConfig locates the scratch directory that is reset per theme.
type WorkspaceConfig struct {
	Dir string `mapstructure:"dir"`
}

// OutputConfig locates generated artifacts.
type OutputConfig struct {
	ThumbnailsDir string `mapstructure:"thumbnails_dir"`
	PreviewsDir   string `mapstructure:"previews_dir"`
}

// PrivateConfig configures the batch mode over pre-downloaded packages.
type PrivateConfig struct {
	Dir     string `mapstructure:"dir"`
	URLList string `mapstructure:"url_list"`
}

// FetchConfig configures theme package downloads.
type FetchConfig struct {
	Method         string        `mapstructure:"method"` // http, script
	Script         string        `mapstructure:"script"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	MaxPackageSize ByteSize      `mapstructure:"max_package_size"`
}

// ArchiveConfig limits package extraction.
type ArchiveConfig struct {
	MaxEntrySize ByteSize `mapstructure:"max_entry_size"`
}

// ValidationConfig tunes the visual checks.
type ValidationConfig struct {
	MinWidth            int  `mapstructure:"min_width"`
	MinHeight           int  `mapstructure:"min_height"`
	CheckBrightness     bool `mapstructure:"check_brightness"`
	BrightnessTolerance int  `mapstructure:"brightness_tolerance"`
}

// ArtifactsConfig sizes the generated thumbnails and previews.
type ArtifactsConfig struct {
	ThumbnailWidth int `mapstructure:"thumbnail_width"`
	PreviewWidth   int `mapstructure:"preview_width"`
	PreviewQuality int `mapstructure:"preview_quality"`
}

// Configure registers defaults, the config file and environment overrides on
// v and reads the file. Without configPath, .wallthemes.yaml is searched for
// in the working directory and then the home directory; not finding one is
// not an error.
// Environment variables are prefixed with WALLTHEMES_ and use underscores for nesting.
// Example: WALLTHEMES_FETCH_METHOD=script.
func Configure(v *viper.Viper, configPath string) error {
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".wallthemes")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// Unmarshal decodes and validates the configuration held by v.
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", "")

	v.SetDefault("catalog.path", "theme-db.json")
	v.SetDefault("sources.dir", "themes")
	v.SetDefault("workspace.dir", "temp")

	v.SetDefault("output.thumbnails_dir", filepath.Join("out", "thumbnails"))
	v.SetDefault("output.previews_dir", filepath.Join("out", "previews"))

	v.SetDefault("private.dir", "private")
	v.SetDefault("private.url_list", filepath.Join("themes", "_paid.yaml"))

	v.SetDefault("fetch.method", FetchMethodHTTP)
	v.SetDefault("fetch.script", "")
	v.SetDefault("fetch.timeout", defaultFetchTimeout)
	v.SetDefault("fetch.retry_attempts", defaultRetryAttempts)
	v.SetDefault("fetch.retry_delay", defaultRetryDelay)
	v.SetDefault("fetch.max_package_size", defaultMaxPackageSize)

	v.SetDefault("archive.max_entry_size", defaultMaxEntrySize)

	v.SetDefault("validation.min_width", defaultMinWidth)
	v.SetDefault("validation.min_height", defaultMinHeight)
	v.SetDefault("validation.check_brightness", true)
	v.SetDefault("validation.brightness_tolerance", defaultBrightnessTolerance)

	v.SetDefault("artifacts.thumbnail_width", defaultThumbnailWidth)
	v.SetDefault("artifacts.preview_width", defaultPreviewWidth)
	v.SetDefault("artifacts.preview_quality", defaultPreviewQuality)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Sources.Dir == "" {
		return fmt.Errorf("sources.dir is required")
	}
	if c.Workspace.Dir == "" {
		return fmt.Errorf("workspace.dir is required")
	}
	if c.Output.ThumbnailsDir == "" || c.Output.PreviewsDir == "" {
		return fmt.Errorf("output.thumbnails_dir and output.previews_dir are required")
	}

	switch c.Fetch.Method {
	case FetchMethodHTTP:
	case FetchMethodScript:
		if c.Fetch.Script == "" {
			return fmt.Errorf("fetch.script is required when fetch.method is %q", FetchMethodScript)
		}
	default:
		return fmt.Errorf("fetch.method must be one of: %s, %s", FetchMethodHTTP, FetchMethodScript)
	}
	if c.Fetch.RetryAttempts < 0 {
		return fmt.Errorf("fetch.retry_attempts must not be negative")
	}
	if c.Fetch.MaxPackageSize <= 0 {
		return fmt.Errorf("fetch.max_package_size must be positive")
	}
	if c.Archive.MaxEntrySize <= 0 {
		return fmt.Errorf("archive.max_entry_size must be positive")
	}

	if c.Validation.MinWidth < 1 || c.Validation.MinHeight < 1 {
		return fmt.Errorf("validation.min_width and validation.min_height must be at least 1")
	}
	if c.Validation.BrightnessTolerance < 0 {
		return fmt.Errorf("validation.brightness_tolerance must not be negative")
	}

	if c.Artifacts.ThumbnailWidth < 16 || c.Artifacts.PreviewWidth < 16 {
		return fmt.Errorf("artifacts.thumbnail_width and artifacts.preview_width must be at least 16")
	}
	if c.Artifacts.PreviewQuality < 1 || c.Artifacts.PreviewQuality > 100 {
		return fmt.Errorf("artifacts.preview_quality must be between 1 and 100")
	}

	return nil
}
