package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	c.TVDB.APIKey = strings.TrimSpace(c.TVDB.APIKey)
	c.TMDB.Languages = normalizeList(c.TMDB.Languages, "en-US")
	c.IMDb.Languages = normalizeList(c.IMDb.Languages, "en-US")
	c.IMDb.BaseURL = strings.TrimRight(strings.TrimSpace(c.IMDb.BaseURL), "/")

	if err := c.normalizeScrape(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeScrape() error {
	if c.Scrape.Workers <= 0 {
		c.Scrape.Workers = defaultWorkers
	}
	if c.Scrape.CacheTTLMinutes <= 0 {
		c.Scrape.CacheTTLMinutes = defaultCacheTTLMinutes
	}
	if c.Scrape.HTTPTimeoutSeconds <= 0 {
		c.Scrape.HTTPTimeoutSeconds = defaultHTTPTimeoutSeconds
	}
	if c.MediaInfo.ProbeTimeoutSeconds < 0 {
		c.MediaInfo.ProbeTimeoutSeconds = 0
	}
	c.Scrape.DefaultGroup = strings.TrimSpace(c.Scrape.DefaultGroup)

	var err error
	if c.Scrape.GroupsDir, err = expandPath(c.Scrape.GroupsDir); err != nil {
		return fmt.Errorf("scrape.groups_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func normalizeList(values []string, fallback string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = append(out, fallback)
	}
	return out
}

// expandPath resolves a leading ~ against the home directory.
func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
