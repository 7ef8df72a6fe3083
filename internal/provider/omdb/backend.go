// Package omdb implements the OMDb backend on top of the Digital-Shane/omdb
// client.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/Digital-Shane/omdb"
	"github.com/patrickmn/go-cache"
)

// Name is the registry name of the backend.
const Name = "OMDb"

// Options configures the backend.
type Options struct {
	APIKey string

	// Bootstrap names the backend used to find IMDb ids; empty searches OMDb.
	Bootstrap string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Backend serves movie fields from OMDb, keyed by IMDb id.
type Backend struct {
	client    *omdb.Client
	bootstrap string
	cache     *cache.Cache
	limiter   *provider.RateLimiter
	logger    *slog.Logger
}

// New creates an OMDb backend.
func New(opts Options) (*Backend, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key is required", Name)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Backend{
		client:    omdb.NewClient(apiKey, httpClient),
		bootstrap: strings.TrimSpace(opts.Bootstrap),
		cache:     cache.New(ttl, 10*time.Minute),
		limiter:   provider.NewRateLimiter(10, time.Second),
		logger:    log.Or(opts.Logger).With(log.FieldBackend, Name),
	}, nil
}

// Descriptor describes the backend.
func (b *Backend) Descriptor() provider.Descriptor {
	return provider.Descriptor{
		Name:        Name,
		Description: "Open Movie Database (OMDb) provided metadata",
		Fields: []provider.Field{
			provider.FieldTitle,
			provider.FieldYear,
			provider.FieldCast,
			provider.FieldCertification,
			provider.FieldMpaa,
			provider.FieldCountry,
			provider.FieldDirector,
			provider.FieldGenre,
			provider.FieldLanguage,
			provider.FieldPlot,
			provider.FieldRating,
			provider.FieldReleaseDate,
			provider.FieldRuntime,
			provider.FieldStudio,
			provider.FieldVotes,
			provider.FieldWriters,
			provider.FieldPoster,
		},
		IDKind:       provider.IDKindImdb,
		Bootstrap:    b.bootstrap,
		RequiresAuth: true,
	}
}

// Search finds a single movie by IMDb id or by title and year. OMDb's title
// lookup returns its best match only.
func (b *Backend) Search(ctx context.Context, q provider.Query) ([]provider.Candidate, error) {
	var query omdb.QueryData
	switch {
	case strings.TrimSpace(q.ImdbID) != "":
		query = omdb.QueryData{ImdbID: strings.TrimSpace(q.ImdbID), Plot: "full"}
	case strings.TrimSpace(q.Title) != "":
		query = omdb.QueryData{Title: strings.TrimSpace(q.Title), SearchType: "movie", Plot: "full"}
		if q.Year > 0 {
			query.Year = strconv.Itoa(q.Year)
		}
	default:
		return nil, provider.InvalidRequest(Name, "search needs a title or an IMDb ID")
	}

	m, err := b.fetch(ctx, query)
	if err != nil {
		var provErr *provider.ProviderError
		if errors.As(err, &provErr) && provErr.Code == provider.CodeNotFound {
			b.logger.Debug("search returned no match", "title", q.Title, "imdb_id", q.ImdbID)
			return nil, nil
		}
		return nil, err
	}
	b.cache.Set(m.ImdbID, m, cache.DefaultExpiration)
	return []provider.Candidate{{Title: m.Title, Year: m.year(), ImdbID: m.ImdbID}}, nil
}

// details returns the full record for an IMDb id.
func (b *Backend) details(ctx context.Context, imdbID string) (*movieRecord, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, provider.InvalidRequest(Name, "missing IMDb id")
	}
	if cached, found := b.cache.Get(imdbID); found {
		if m, ok := cached.(*movieRecord); ok {
			return m, nil
		}
	}

	m, err := b.fetch(ctx, omdb.QueryData{ImdbID: imdbID, Plot: "full"})
	if err != nil {
		return nil, err
	}
	b.cache.Set(imdbID, m, cache.DefaultExpiration)
	return m, nil
}

func (b *Backend) fetch(ctx context.Context, query omdb.QueryData) (*movieRecord, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var (
		result any
		err    error
	)
	if query.ImdbID != "" {
		result, err = b.client.SearchByImdbID(query)
	} else {
		result, err = b.client.SearchByTitle(query)
	}
	if err != nil {
		return nil, mapError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m *movieRecord
	switch movie := result.(type) {
	case omdb.MovieResult:
		m, err = decodeMovie(movie)
	case *omdb.MovieResult:
		m, err = decodeMovie(*movie)
	default:
		return nil, provider.NotFound(Name, "movie not found")
	}
	if err != nil {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: "decode movie", Err: err}
	}
	if m.ImdbID == "" {
		return nil, provider.NotFound(Name, "movie not found")
	}
	return m, nil
}

// decodeMovie copies the client's result into movieRecord through the OMDb
// JSON field names.
func decodeMovie(result omdb.MovieResult) (*movieRecord, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var m movieRecord
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m.normalize()
	return &m, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "missing omdb api key"):
		return &provider.ProviderError{
			Provider: Name,
			Code:     provider.CodeAuthFailed,
			Message:  "OMDb authentication failed: " + msg,
			Err:      err,
		}
	case strings.Contains(lower, "not found"):
		return &provider.ProviderError{
			Provider: Name,
			Code:     provider.CodeNotFound,
			Message:  msg,
			Err:      err,
		}
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return &provider.ProviderError{
			Provider:   Name,
			Code:       provider.CodeRateLimited,
			Message:    msg,
			Retry:      true,
			RetryAfter: 5,
			Err:        err,
		}
	default:
		return &provider.ProviderError{
			Provider: Name,
			Code:     provider.CodeUnknown,
			Message:  msg,
			Err:      err,
		}
	}
}
