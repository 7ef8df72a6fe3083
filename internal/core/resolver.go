package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
)

// BackendFinder is the registry view the resolver and scraper need.
type BackendFinder interface {
	FindByName(name string) (provider.Backend, error)
}

// Resolver produces per-backend identifiers for a single movie during one run.
// Identifiers and failures are memoized per target backend, and search results
// per searching backend, so each backend is searched at most once per run even
// when several targets bootstrap through it. A Resolver must not be shared
// between runs.
type Resolver struct {
	movie    *media.Movie
	backends BackendFinder
	logger   *slog.Logger

	ids      map[string]string
	failures map[string]error
	searches map[string]int
	results  map[string]searchResult
}

// searchResult is one memoized search round-trip.
type searchResult struct {
	candidates []provider.Candidate
	err        error
}

// NewResolver creates a resolver for movie. The movie's stored cross
// references seed the identifier set lazily.
func NewResolver(movie *media.Movie, backends BackendFinder, logger *slog.Logger) *Resolver {
	return &Resolver{
		movie:    movie,
		backends: backends,
		logger:   log.Or(logger),
		ids:      make(map[string]string),
		failures: make(map[string]error),
		searches: make(map[string]int),
		results:  make(map[string]searchResult),
	}
}

// Known returns the identifier already resolved for a backend.
func (r *Resolver) Known(name string) (string, bool) {
	id, ok := r.ids[strings.ToLower(name)]
	return id, ok
}

// Searches reports how many searches were issued against a backend.
func (r *Resolver) Searches(name string) int {
	return r.searches[strings.ToLower(name)]
}

// Resolve returns the identifier backend expects for this movie.
func (r *Resolver) Resolve(ctx context.Context, backend provider.Backend) (string, error) {
	desc := backend.Descriptor()
	key := strings.ToLower(desc.Name)

	if id, ok := r.ids[key]; ok {
		return id, nil
	}
	if err, ok := r.failures[key]; ok {
		return "", err
	}

	id, err := r.resolve(ctx, backend, desc)
	if err != nil {
		// Canceled lookups are not memoized.
		if ctx.Err() == nil {
			r.failures[key] = err
		}
		return "", err
	}
	r.ids[key] = id
	return id, nil
}

func (r *Resolver) resolve(ctx context.Context, backend provider.Backend, desc provider.Descriptor) (string, error) {
	switch desc.IDKind {
	case provider.IDKindNone:
		return "", nil
	case provider.IDKindTitle:
		if title := strings.TrimSpace(r.movie.Title); title != "" {
			return title, nil
		}
		return "", fmt.Errorf("%w: %s needs a title", ErrIdentifierUnresolvable, desc.Name)
	case provider.IDKindFile:
		if r.movie.FilePath != "" {
			return r.movie.FilePath, nil
		}
		return "", fmt.Errorf("%w: %s needs a media file", ErrIdentifierUnresolvable, desc.Name)
	}

	if id := r.stored(desc); id != "" {
		return id, nil
	}
	return r.search(ctx, backend, desc)
}

// stored returns an identifier already carried by the movie record.
func (r *Resolver) stored(desc provider.Descriptor) string {
	switch desc.IDKind {
	case provider.IDKindImdb:
		return media.NormalizeImdbID(r.movie.ImdbID)
	case provider.IDKindTmdb:
		return strings.TrimSpace(r.movie.TmdbID)
	case provider.IDKindProvider:
		return strings.TrimSpace(r.movie.ProviderID(desc.Name))
	}
	return ""
}

func (r *Resolver) search(ctx context.Context, target provider.Backend, desc provider.Descriptor) (string, error) {
	searcher := target
	if desc.Bootstrap != "" && !strings.EqualFold(desc.Bootstrap, desc.Name) {
		if b, err := r.backends.FindByName(desc.Bootstrap); err == nil {
			searcher = b
		} else {
			r.logger.Debug("bootstrap backend unavailable, searching target",
				"bootstrap", desc.Bootstrap, log.FieldBackend, desc.Name)
		}
	}
	searchName := searcher.Descriptor().Name

	title := strings.TrimSpace(r.movie.Title)
	candidates, err := r.searchOnce(ctx, searcher, searchName)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %s search failed: %w", ErrIdentifierUnresolvable, searchName, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s search returned no results for %q", ErrIdentifierUnresolvable, searchName, title)
	}

	first := candidates[0]
	r.learn(first)

	id := strings.TrimSpace(first.IDFor(desc.IDKind, desc.Name))
	if desc.IDKind == provider.IDKindImdb {
		id = media.NormalizeImdbID(id)
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s result carries no %s id for %s", ErrIdentifierUnresolvable, searchName, desc.IDKind, desc.Name)
	}

	r.logger.Debug("identifier resolved",
		log.FieldBackend, desc.Name, "via", searchName, "id", id)
	return id, nil
}

// searchOnce issues the movie search against searcher, reusing the result of
// an earlier search against the same backend in this run.
func (r *Resolver) searchOnce(ctx context.Context, searcher provider.Backend, searchName string) ([]provider.Candidate, error) {
	key := strings.ToLower(searchName)
	if res, ok := r.results[key]; ok {
		return res.candidates, res.err
	}

	r.searches[key]++
	candidates, err := searcher.Search(ctx, provider.Query{
		Title:       strings.TrimSpace(r.movie.Title),
		Year:        r.movie.Year,
		ImdbID:      r.movie.ImdbID,
		TmdbID:      r.movie.TmdbID,
		ProviderIDs: r.movie.ProviderIDs,
	})
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	r.results[key] = searchResult{candidates: candidates, err: err}
	return candidates, err
}

// learn copies cross references from a search hit onto the movie, filling
// only identifiers the movie does not have yet.
func (r *Resolver) learn(c provider.Candidate) {
	if r.movie.ImdbID == "" && c.ImdbID != "" {
		r.movie.ImdbID = media.NormalizeImdbID(c.ImdbID)
	}
	if r.movie.TmdbID == "" && c.TmdbID != "" {
		if _, err := strconv.Atoi(c.TmdbID); err == nil {
			r.movie.TmdbID = c.TmdbID
		}
	}
	for name, id := range c.ProviderIDs {
		if id != "" && r.movie.ProviderID(name) == "" {
			r.movie.SetProviderID(name, id)
		}
	}
}
