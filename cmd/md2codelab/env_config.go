package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-md2codelab/internal/config"
	"github.com/alnah/go-md2codelab/internal/fileutil"
	"github.com/alnah/go-md2codelab/internal/hints"
)

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath    string        // CODELAB_CONFIG: config file name or path
	Addr          string        // CODELAB_ADDR: listen address
	DSN           string        // CODELAB_DB: SQLite database path
	AllowedPrefix string        // CODELAB_ALLOWED_PREFIX: accepted source URL prefix
	FetchTimeout  time.Duration // CODELAB_FETCH_TIMEOUT: source fetch timeout
	UserAgent     string        // CODELAB_USER_AGENT: fetch User-Agent
	LogLevel      string        // CODELAB_LOG_LEVEL
	LogFormat     string        // CODELAB_LOG_FORMAT
	AssetPath     string        // CODELAB_ASSET_PATH: custom asset directory
	ViewsLimit    int           // CODELAB_VIEWS_LIMIT: rows on /views
}

// knownEnvVars lists valid CODELAB_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"CODELAB_CONFIG":         true,
	"CODELAB_ADDR":           true,
	"CODELAB_DB":             true,
	"CODELAB_ALLOWED_PREFIX": true,
	"CODELAB_FETCH_TIMEOUT":  true,
	"CODELAB_USER_AGENT":     true,
	"CODELAB_LOG_LEVEL":      true,
	"CODELAB_LOG_FORMAT":     true,
	"CODELAB_ASSET_PATH":     true,
	"CODELAB_VIEWS_LIMIT":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and integers are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:    os.Getenv("CODELAB_CONFIG"),
		Addr:          os.Getenv("CODELAB_ADDR"),
		DSN:           os.Getenv("CODELAB_DB"),
		AllowedPrefix: os.Getenv("CODELAB_ALLOWED_PREFIX"),
		UserAgent:     os.Getenv("CODELAB_USER_AGENT"),
		LogLevel:      os.Getenv("CODELAB_LOG_LEVEL"),
		LogFormat:     os.Getenv("CODELAB_LOG_FORMAT"),
		AssetPath:     os.Getenv("CODELAB_ASSET_PATH"),
	}

	if timeout := os.Getenv("CODELAB_FETCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.FetchTimeout = d
		}
	}

	if limit := os.Getenv("CODELAB_VIEWS_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			cfg.ViewsLimit = n
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized CODELAB_* variables.
// Helps catch typos like CODELAB_ADRR instead of CODELAB_ADDR.
func warnUnknownEnvVars(w io.Writer) {
	var unknown []string
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "CODELAB_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				unknown = append(unknown, name)
			}
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig overwrites config values with the environment variables
// that are set. Flags are applied afterwards, which gives:
// CLI flags > env vars > config file > defaults
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Server.Addr, env.Addr)
	setString(&cfg.Store.DSN, env.DSN)
	setString(&cfg.Fetch.AllowedPrefix, env.AllowedPrefix)
	setString(&cfg.Fetch.UserAgent, env.UserAgent)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.Format, env.LogFormat)
	setString(&cfg.Assets.BasePath, env.AssetPath)

	if env.FetchTimeout > 0 {
		cfg.Fetch.Timeout = env.FetchTimeout
	}
	if env.ViewsLimit > 0 {
		cfg.Views.Limit = env.ViewsLimit
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// loadConfig builds the effective configuration for a command: defaults,
// then the config file (flag, or CODELAB_CONFIG), then the environment.
// Callers apply their flags and call Validate.
func loadConfig(flagPath string) (*config.Config, error) {
	env := loadEnvConfig()

	path := flagPath
	if path == "" {
		path = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(path) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(path)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// applyFetchFlags merges fetch flags into cfg.
func applyFetchFlags(f *fetchFlags, cfg *config.Config) {
	setString(&cfg.Fetch.AllowedPrefix, f.allowedPrefix)
	setString(&cfg.Fetch.UserAgent, f.userAgent)
	if f.timeout > 0 {
		cfg.Fetch.Timeout = f.timeout
	}
}
