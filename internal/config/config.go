// Package config loads the movie-meta configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MOVIEMETA"

// TMDB configures TheMovieDB backend.
type TMDB struct {
	APIKey string `toml:"api_key"`

	// Languages are indexed by the scrape region.
	Languages []string `toml:"languages"`
}

// OMDb configures the OMDb backend.
type OMDb struct {
	APIKey string `toml:"api_key"`
}

// TVDB configures the TVDB backend.
type TVDB struct {
	APIKey string `toml:"api_key"`
}

// IMDb configures the IMDb backend.
type IMDb struct {
	// Languages are Accept-Language values indexed by the scrape region.
	Languages []string `toml:"languages"`
	BaseURL   string   `toml:"base_url"`
}

// MediaInfo configures the ffprobe backed MediaInfo backend.
type MediaInfo struct {
	ProbeTimeoutSeconds int `toml:"probe_timeout_seconds"`
}

// Scrape holds run level settings.
type Scrape struct {
	Region              int    `toml:"region"`
	FieldTimeoutSeconds int    `toml:"field_timeout_seconds"`
	Workers             int    `toml:"workers"`
	DefaultGroup        string `toml:"default_group"`
	GroupsDir           string `toml:"groups_dir"`
	CacheTTLMinutes     int    `toml:"cache_ttl_minutes"`
	HTTPTimeoutSeconds  int    `toml:"http_timeout_seconds"`
}

// Logging configures log output.
type Logging struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// Config is the application configuration.
type Config struct {
	TMDB      TMDB      `toml:"tmdb"`
	OMDb      OMDb      `toml:"omdb"`
	TVDB      TVDB      `toml:"tvdb"`
	IMDb      IMDb      `toml:"imdb"`
	MediaInfo MediaInfo `toml:"mediainfo"`
	Scrape    Scrape    `toml:"scrape"`
	Logging   Logging   `toml:"logging"`

	// Groups maps a group name to its field assignments.
	Groups map[string]map[string]string `toml:"groups"`
}

// envOverrides lists the settings that can be supplied through the
// environment, e.g. MOVIEMETA_TMDB_API_KEY.
type envOverrides struct {
	TMDBAPIKey   string `envconfig:"TMDB_API_KEY"`
	OMDbAPIKey   string `envconfig:"OMDB_API_KEY"`
	TVDBAPIKey   string `envconfig:"TVDB_API_KEY"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	LogFormat    string `envconfig:"LOG_FORMAT"`
	DefaultGroup string `envconfig:"DEFAULT_GROUP"`
}

// DefaultConfigPath returns ~/.movie-meta/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".movie-meta", "config.toml"), nil
}

// Load reads the configuration at path, or the default path when path is
// empty. A missing file yields the defaults. Environment overrides are
// applied before the result is normalized.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("parsing environment variables: %w", err)
	}
	set := func(dst *string, value string) {
		if strings.TrimSpace(value) != "" {
			*dst = value
		}
	}
	set(&c.TMDB.APIKey, env.TMDBAPIKey)
	set(&c.OMDb.APIKey, env.OMDbAPIKey)
	set(&c.TVDB.APIKey, env.TVDBAPIKey)
	set(&c.Logging.Level, env.LogLevel)
	set(&c.Logging.Format, env.LogFormat)
	set(&c.Scrape.DefaultGroup, env.DefaultGroup)
	return nil
}

// FieldTimeout is the per-field deadline; zero means none.
func (c *Config) FieldTimeout() time.Duration {
	return time.Duration(c.Scrape.FieldTimeoutSeconds) * time.Second
}

// CacheTTL is the lifetime of backend response caches.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Scrape.CacheTTLMinutes) * time.Minute
}

// HTTPTimeout bounds a single backend HTTP request.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Scrape.HTTPTimeoutSeconds) * time.Second
}

// ProbeTimeout bounds a single ffprobe run.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.MediaInfo.ProbeTimeoutSeconds) * time.Second
}

// Save writes the configuration as TOML, creating the directory if needed.
func (c *Config) Save(path string) error {
	path, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
