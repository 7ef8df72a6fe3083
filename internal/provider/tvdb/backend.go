// Package tvdb implements the TVDB movie backend on top of the dashotv/tvdb
// SDK.
package tvdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/patrickmn/go-cache"
)

// Name is the registry name of the backend.
const Name = "TVDB"

// Options configures the backend.
type Options struct {
	APIKey string

	// Client replaces the SDK client; APIKey is ignored when set.
	Client Client

	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Backend serves a handful of movie fields from TVDB using its own numeric ids.
type Backend struct {
	client  Client
	cache   *cache.Cache
	limiter *provider.RateLimiter
	logger  *slog.Logger
}

// New creates a TVDB backend, logging in unless a client is supplied.
func New(opts Options) (*Backend, error) {
	client := opts.Client
	if client == nil {
		apiKey := strings.TrimSpace(opts.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("%s: api key is required", Name)
		}
		var err error
		if client, err = login(apiKey); err != nil {
			return nil, err
		}
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Backend{
		client:  client,
		cache:   cache.New(ttl, 10*time.Minute),
		limiter: provider.NewRateLimiter(20, time.Second),
		logger:  log.Or(opts.Logger).With(log.FieldBackend, Name),
	}, nil
}

// Descriptor describes the backend.
func (b *Backend) Descriptor() provider.Descriptor {
	return provider.Descriptor{
		Name:        Name,
		Description: "TheTVDB (TVDB) provided metadata",
		Fields: []provider.Field{
			provider.FieldTitle,
			provider.FieldYear,
			provider.FieldGenre,
			provider.FieldRating,
			provider.FieldRuntime,
		},
		IDKind:       provider.IDKindProvider,
		RequiresAuth: true,
	}
}

// Search returns movie candidates carrying their TVDB id. A known TVDB id is
// looked up directly.
func (b *Backend) Search(ctx context.Context, q provider.Query) ([]provider.Candidate, error) {
	if id := parseInt64(q.ProviderIDs[Name]); id > 0 {
		m, err := b.details(ctx, strconv.FormatInt(id, 10))
		if err != nil {
			var provErr *provider.ProviderError
			if errors.As(err, &provErr) && provErr.Code == provider.CodeNotFound {
				return nil, nil
			}
			return nil, err
		}
		return []provider.Candidate{candidateOf(m.ID, m.Name, m.Year, m.ImdbID)}, nil
	}

	title := strings.TrimSpace(q.Title)
	if title == "" {
		return nil, provider.InvalidRequest(Name, "search needs a title or a TVDB id")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	records, err := b.client.SearchMovies(ctx, title, q.Year)
	if err != nil {
		return nil, err
	}

	candidates := make([]provider.Candidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, candidateOf(r.ID, r.Name, r.Year, ""))
	}
	b.logger.Debug("search complete", "title", title, "year", q.Year, "results", len(candidates))
	return candidates, nil
}

func candidateOf(id int64, name string, year int, imdbID string) provider.Candidate {
	return provider.Candidate{
		Title:       name,
		Year:        year,
		ImdbID:      imdbID,
		ProviderIDs: map[string]string{Name: strconv.FormatInt(id, 10)},
	}
}

func (b *Backend) details(ctx context.Context, rawID string) (*movieRecord, error) {
	id := parseInt64(rawID)
	if id <= 0 {
		return nil, provider.InvalidRequest(Name, "invalid TVDB id %q", rawID)
	}
	key := strconv.FormatInt(id, 10)
	if cached, found := b.cache.Get(key); found {
		if m, ok := cached.(*movieRecord); ok {
			return m, nil
		}
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	m, err := b.client.Movie(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, provider.NotFound(Name, "movie %d not found", id)
	}
	b.cache.Set(key, m, cache.DefaultExpiration)
	return m, nil
}

func (b *Backend) ScrapeTitle(ctx context.Context, req provider.FieldRequest) (provider.TitleResult, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return provider.TitleResult{}, err
	}
	if m.Name == "" {
		return provider.TitleResult{}, provider.NotFound(Name, "no title for %s", req.ID)
	}
	return provider.TitleResult{Title: m.Name}, nil
}

func (b *Backend) ScrapeYear(ctx context.Context, req provider.FieldRequest) (int, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	if m.Year <= 0 {
		return 0, provider.NotFound(Name, "no year for %s", req.ID)
	}
	return m.Year, nil
}

func (b *Backend) ScrapeGenre(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if len(m.Genres) == 0 {
		return nil, provider.NotFound(Name, "no genres for %s", req.ID)
	}
	return m.Genres, nil
}

// ScrapeRating returns the TVDB score, which is not on a ten point scale.
func (b *Backend) ScrapeRating(ctx context.Context, req provider.FieldRequest) (float64, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	if m.Score <= 0 {
		return 0, provider.NotFound(Name, "no rating for %s", req.ID)
	}
	return m.Score, nil
}

func (b *Backend) ScrapeRuntime(ctx context.Context, req provider.FieldRequest) (int, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	if m.Runtime <= 0 {
		return 0, provider.NotFound(Name, "no runtime for %s", req.ID)
	}
	return m.Runtime, nil
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
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "apikey"):
		return &provider.ProviderError{Provider: Name, Code: provider.CodeAuthFailed, Message: "TVDB authentication failed: " + msg, Err: err}
	case strings.Contains(lower, "429"), strings.Contains(lower, "too many"):
		return &provider.ProviderError{Provider: Name, Code: provider.CodeRateLimited, Message: msg, Retry: true, RetryAfter: 5, Err: err}
	case strings.Contains(lower, "404"), strings.Contains(lower, "not found"):
		return &provider.ProviderError{Provider: Name, Code: provider.CodeNotFound, Message: msg, Err: err}
	case strings.Contains(lower, "503"), strings.Contains(lower, "unavailable"):
		return &provider.ProviderError{Provider: Name, Code: provider.CodeUnavailable, Message: msg, Retry: true, RetryAfter: 30, Err: err}
	default:
		return &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: msg, Err: err}
	}
}
