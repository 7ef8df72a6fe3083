// Package tmdb implements the TheMovieDB backend on top of go-tmdb.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/patrickmn/go-cache"
	"github.com/ryanbradynd05/go-tmdb"
)

// Name is the registry name of the backend.
const Name = "TheMovieDB"

const (
	defaultLanguage  = "en-US"
	defaultCacheTTL  = 24 * time.Hour
	maxCandidates    = 5
	appendToResponse = "credits,images,videos,alternative_titles"
)

// Client is the subset of *tmdb.TMDb the backend uses.
type Client interface {
	SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	GetMovieInfo(id int, options map[string]string) (*tmdb.Movie, error)
}

// Options configures the backend.
type Options struct {
	APIKey string

	// Languages lists the metadata language for each region index. The first
	// entry is used for searches and out of range regions.
	Languages []string

	// CacheTTL bounds how long movie details are reused; zero uses a day.
	CacheTTL time.Duration

	// Client replaces the go-tmdb client, mainly for tests.
	Client Client

	Logger *slog.Logger
}

// Backend serves movie fields from TheMovieDB. Identifiers are numeric TMDB
// ids and search candidates carry the IMDb id of the best match too.
type Backend struct {
	client    Client
	languages []string
	cache     *cache.Cache
	limiter   *provider.RateLimiter
	logger    *slog.Logger
}

// New creates a TheMovieDB backend.
func New(opts Options) (*Backend, error) {
	client := opts.Client
	if client == nil {
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, fmt.Errorf("%s: api key is required", Name)
		}
		client = tmdb.Init(tmdb.Config{
			APIKey:   opts.APIKey,
			Proxies:  nil,
			UseProxy: false,
		})
	}

	languages := make([]string, 0, len(opts.Languages))
	for _, lang := range opts.Languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	if len(languages) == 0 {
		languages = []string{defaultLanguage}
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Backend{
		client:    client,
		languages: languages,
		cache:     cache.New(ttl, 10*time.Minute),
		// TMDB allows roughly 40 requests per 10 seconds.
		limiter: provider.NewRateLimiter(38, 10*time.Second),
		logger:  log.Or(opts.Logger).With(log.FieldBackend, Name),
	}, nil
}

// Descriptor describes the backend.
func (b *Backend) Descriptor() provider.Descriptor {
	return provider.Descriptor{
		Name:        Name,
		Description: "The Movie Database (TMDB) provided metadata",
		Fields: []provider.Field{
			provider.FieldTitle,
			provider.FieldOriginalTitle,
			provider.FieldYear,
			provider.FieldCast,
			provider.FieldCountry,
			provider.FieldDirector,
			provider.FieldFanart,
			provider.FieldGenre,
			provider.FieldLanguage,
			provider.FieldOutline,
			provider.FieldPlot,
			provider.FieldRating,
			provider.FieldReleaseDate,
			provider.FieldRuntime,
			provider.FieldStudio,
			provider.FieldTagline,
			provider.FieldVotes,
			provider.FieldWriters,
			provider.FieldPoster,
			provider.FieldTrailer,
		},
		IDKind:       provider.IDKindTmdb,
		DualID:       true,
		RequiresAuth: true,
	}
}

// Search looks a movie up by TMDB id when known, otherwise by title and year.
func (b *Backend) Search(ctx context.Context, q provider.Query) ([]provider.Candidate, error) {
	if id := strings.TrimSpace(q.TmdbID); id != "" {
		d, err := b.details(ctx, id, 0)
		if err != nil {
			return nil, err
		}
		return []provider.Candidate{d.candidate()}, nil
	}

	title := strings.TrimSpace(q.Title)
	if title == "" {
		return nil, provider.InvalidRequest(Name, "search needs a title")
	}

	options := map[string]string{"language": b.language(0)}
	if q.Year > 0 {
		options["year"] = strconv.Itoa(q.Year)
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	results, err := b.client.SearchMovie(title, options)
	if err != nil {
		return nil, mapError(err)
	}
	if results == nil || len(results.Results) == 0 {
		b.logger.Debug("search returned no results", "title", title, "year", q.Year)
		return nil, nil
	}

	candidates := make([]provider.Candidate, 0, min(len(results.Results), maxCandidates))
	for _, r := range results.Results {
		if len(candidates) == maxCandidates {
			break
		}
		candidates = append(candidates, provider.Candidate{
			Title:  r.Title,
			Year:   yearOf(r.ReleaseDate),
			TmdbID: strconv.Itoa(r.ID),
		})
	}

	// Search results lack the IMDb id; the details of the best match have it.
	d, err := b.details(ctx, candidates[0].TmdbID, 0)
	switch {
	case err == nil:
		candidates[0].ImdbID = d.ImdbID
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		b.logger.Debug("details for best match failed", "tmdb_id", candidates[0].TmdbID, log.FieldError, err)
	}
	return candidates, nil
}

func (b *Backend) language(region int) string {
	if region >= 0 && region < len(b.languages) {
		return b.languages[region]
	}
	return b.languages[0]
}

// details fetches and caches the full movie record for id in the region's
// language.
func (b *Backend) details(ctx context.Context, id string, region int) (*movieDetails, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n <= 0 {
		return nil, provider.InvalidRequest(Name, "invalid movie id %q", id)
	}
	lang := b.language(region)
	key := fmt.Sprintf("movie:%d:%s", n, lang)

	if cached, found := b.cache.Get(key); found {
		if d, ok := cached.(*movieDetails); ok {
			return d, nil
		}
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	movie, err := b.client.GetMovieInfo(n, map[string]string{
		"language":               lang,
		"append_to_response":     appendToResponse,
		"include_image_language": imageLanguages(lang),
	})
	if err != nil {
		return nil, mapError(err)
	}
	if movie == nil {
		return nil, provider.NotFound(Name, "movie %d not found", n)
	}

	d, err := decodeMovie(movie)
	if err != nil {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: "decode movie details", Err: err}
	}
	b.cache.Set(key, d, cache.DefaultExpiration)
	return d, nil
}

// decodeMovie re-reads the go-tmdb record through its JSON form so appended
// responses (credits, images, videos) land in one flat structure.
func decodeMovie(movie *tmdb.Movie) (*movieDetails, error) {
	raw, err := json.Marshal(movie)
	if err != nil {
		return nil, err
	}
	var d movieDetails
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func imageLanguages(lang string) string {
	short, _, _ := strings.Cut(lang, "-")
	if short == "" {
		return "null"
	}
	return strings.ToLower(short) + ",null"
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// mapError maps TMDB errors to provider errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized") {
		return &provider.ProviderError{
			Provider: Name,
			Code:     provider.CodeAuthFailed,
			Message:  "TMDB authentication failed: " + err.Error(),
			Err:      err,
		}
	}
	if strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
		return &provider.ProviderError{
			Provider: Name,
			Code:     provider.CodeNotFound,
			Message:  "TMDB resource not found",
			Err:      err,
		}
	}
	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return &provider.ProviderError{
			Provider:   Name,
			Code:       provider.CodeRateLimited,
			Message:    "TMDB rate limit exceeded",
			Retry:      true,
			RetryAfter: 10,
			Err:        err,
		}
	}
	if strings.Contains(errStr, "503") || strings.Contains(errStr, "unavailable") {
		return &provider.ProviderError{
			Provider:   Name,
			Code:       provider.CodeUnavailable,
			Message:    "TMDB service unavailable",
			Retry:      true,
			RetryAfter: 30,
			Err:        err,
		}
	}

	return &provider.ProviderError{
		Provider: Name,
		Code:     provider.CodeUnknown,
		Message:  "TMDB error: " + err.Error(),
		Err:      err,
	}
}
