package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2codelab/internal/dateutil"
	"github.com/alnah/go-md2codelab/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength      = 255  // host:port
	MaxURLLength       = 2048 // Browser limit
	MaxUserAgentLength = 256
	MaxPathLength      = 4096 // PATH_MAX on Linux
	MaxLevelLength     = 10   // "trace" .. "fatal"
	MaxFormatLength    = 10   // "console", "json", "pretty"
)

// Range limits.
const (
	MaxViewsLimit = 1000
	MaxTimeout    = 10 * time.Minute
)

// Defaults.
const (
	DefaultAddr            = "localhost:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultAllowedPrefix   = "https://raw.githubusercontent.com/panhyuan"
	DefaultFetchTimeout    = 30 * time.Second
	DefaultUserAgent       = "Mozilla/5.0 (compatible; MarkdownCodelabsConverter/1.0)"
	DefaultDSN             = "codelabs.db"
	DefaultViewsLimit      = 50
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// Config holds all configuration for the converter and its server.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Store  StoreConfig  `yaml:"store"`
	Views  ViewsConfig  `yaml:"views"`
	Log    LogConfig    `yaml:"log"`
	Assets AssetsConfig `yaml:"assets"`
}

// ServerConfig defines HTTP listener options.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// FetchConfig defines how source Markdown is retrieved.
type FetchConfig struct {
	AllowedPrefix string        `yaml:"allowedPrefix"` // Source URLs must start with this
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"userAgent"`
}

// StoreConfig defines the conversion cache location.
type StoreConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path
}

// ViewsConfig defines the admin listing page.
type ViewsConfig struct {
	Limit      int    `yaml:"limit"`      // Rows shown, newest first
	DateFormat string `yaml:"dateFormat"` // Preset or token format, see dateutil
}

// LogConfig defines structured logging options.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error, fatal
	Format string `yaml:"format"` // console, json, pretty
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"fetch.timeout", c.Fetch.Timeout},
	}
	for _, to := range timeouts {
		if err := validateTimeout(to.name, to.d); err != nil {
			return err
		}
	}

	if err := validateFieldLength("fetch.allowedPrefix", c.Fetch.AllowedPrefix, MaxURLLength); err != nil {
		return err
	}
	if c.Fetch.AllowedPrefix != "" && !fileutil.IsURL(c.Fetch.AllowedPrefix) {
		return fmt.Errorf("%w: fetch.allowedPrefix must start with http:// or https://, got %q", ErrInvalidValue, c.Fetch.AllowedPrefix)
	}
	if err := validateFieldLength("fetch.userAgent", c.Fetch.UserAgent, MaxUserAgentLength); err != nil {
		return err
	}

	if err := validateFieldLength("store.dsn", c.Store.DSN, MaxPathLength); err != nil {
		return err
	}

	if c.Views.Limit < 0 || c.Views.Limit > MaxViewsLimit {
		return fmt.Errorf("%w: views.limit must be between 0 and %d, got %d", ErrInvalidValue, MaxViewsLimit, c.Views.Limit)
	}
	if c.Views.DateFormat != "" {
		if _, err := dateutil.Layout(c.Views.DateFormat); err != nil {
			return fmt.Errorf("views.dateFormat: %w", err)
		}
	}

	if err := validateFieldLength("log.level", c.Log.Level, MaxLevelLength); err != nil {
		return err
	}
	if c.Log.Level != "" {
		switch strings.ToLower(c.Log.Level) {
		case "trace", "debug", "info", "warn", "error", "fatal":
		default:
			return fmt.Errorf("%w: log.level %q (must be trace, debug, info, warn, error, or fatal)", ErrInvalidValue, c.Log.Level)
		}
	}
	if err := validateFieldLength("log.format", c.Log.Format, MaxFormatLength); err != nil {
		return err
	}
	if c.Log.Format != "" {
		switch strings.ToLower(c.Log.Format) {
		case "console", "json", "pretty":
		default:
			return fmt.Errorf("%w: log.format %q (must be console, json, or pretty)", ErrInvalidValue, c.Log.Format)
		}
	}

	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateTimeout accepts zero (use default) or a positive value up to MaxTimeout.
func validateTimeout(fieldName string, d time.Duration) error {
	if d < 0 || d > MaxTimeout {
		return fmt.Errorf("%w: %s must be between 0 and %s, got %s", ErrInvalidValue, fieldName, MaxTimeout, d)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Fetch: FetchConfig{
			AllowedPrefix: DefaultAllowedPrefix,
			Timeout:       DefaultFetchTimeout,
			UserAgent:     DefaultUserAgent,
		},
		Store:  StoreConfig{DSN: DefaultDSN},
		Views:  ViewsConfig{Limit: DefaultViewsLimit, DateFormat: dateutil.DefaultDateFormat},
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Assets: AssetsConfig{BasePath: ""},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values absent from the file keep their DefaultConfig value.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-md2codelab/
func resolveConfigPath(name string) (string, error) {
	triedPaths := SearchPaths(name)
	for _, p := range triedPaths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// SearchPaths returns the locations tried for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-md2codelab", name+ext))
		}
	}

	return paths
}
