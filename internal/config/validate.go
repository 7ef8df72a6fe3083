package config

import (
	"errors"
	"fmt"

	"github.com/Digital-Shane/movie-meta/internal/provider"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScrape(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateGroups()
}

func (c *Config) validateScrape() error {
	if c.Scrape.Region < 0 {
		return errors.New("scrape.region must be zero or positive")
	}
	if c.Scrape.FieldTimeoutSeconds < 0 {
		return errors.New("scrape.field_timeout_seconds must be zero or positive")
	}
	if c.Scrape.Workers > 64 {
		return errors.New("scrape.workers must be at most 64")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateGroups() error {
	for name, fields := range c.Groups {
		for key := range fields {
			if _, err := provider.ParseField(key); err != nil {
				return fmt.Errorf("groups.%s: %w", name, err)
			}
		}
	}
	return nil
}
