// Package catalog builds the backend registry from configuration. The set of
// backends is closed: every backend the program knows is listed here.
package catalog

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Digital-Shane/movie-meta/internal/config"
	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/Digital-Shane/movie-meta/internal/provider/imdb"
	"github.com/Digital-Shane/movie-meta/internal/provider/mediainfo"
	"github.com/Digital-Shane/movie-meta/internal/provider/omdb"
	"github.com/Digital-Shane/movie-meta/internal/provider/tmdb"
	"github.com/Digital-Shane/movie-meta/internal/provider/tvdb"
)

// Build registers Imdb and MediaInfo unconditionally and the keyed backends
// (TheMovieDB, OMDb, TVDB) when their API key is configured. IMDb id lookups
// bootstrap through TheMovieDB whenever it is available.
func Build(cfg *config.Config, logger *slog.Logger) (*provider.Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger = log.Or(logger)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}

	var backends []provider.Backend
	bootstrap := ""

	if cfg.TMDB.APIKey != "" {
		b, err := tmdb.New(tmdb.Options{
			APIKey:    cfg.TMDB.APIKey,
			Languages: cfg.TMDB.Languages,
			CacheTTL:  cfg.CacheTTL(),
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("configure %s: %w", tmdb.Name, err)
		}
		backends = append(backends, b)
		bootstrap = tmdb.Name
	}

	if cfg.OMDb.APIKey != "" {
		b, err := omdb.New(omdb.Options{
			APIKey:     cfg.OMDb.APIKey,
			Bootstrap:  bootstrap,
			HTTPClient: httpClient,
			CacheTTL:   cfg.CacheTTL(),
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("configure %s: %w", omdb.Name, err)
		}
		backends = append(backends, b)
	}

	if cfg.TVDB.APIKey != "" {
		b, err := tvdb.New(tvdb.Options{
			APIKey:   cfg.TVDB.APIKey,
			CacheTTL: cfg.CacheTTL(),
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("configure %s: %w", tvdb.Name, err)
		}
		backends = append(backends, b)
	}

	backends = append(backends,
		imdb.New(imdb.Options{
			Languages:  cfg.IMDb.Languages,
			Bootstrap:  bootstrap,
			BaseURL:    cfg.IMDb.BaseURL,
			HTTPClient: httpClient,
			CacheTTL:   cfg.CacheTTL(),
			Logger:     logger,
		}),
		mediainfo.New(mediainfo.Options{
			Timeout: cfg.ProbeTimeout(),
			Logger:  logger,
		}),
	)

	reg, err := provider.NewRegistry(backends...)
	if err != nil {
		return nil, err
	}
	logger.Debug("backend registry built", "backends", reg.Names())
	return reg, nil
}
