// Package imdb implements the IMDb backend by reading imdb.com pages. Title
// pages are parsed from their JSON-LD block and rendered markup with goquery.
package imdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/patrickmn/go-cache"
)

// Name is the registry name of the backend.
const Name = "Imdb"

const (
	defaultBaseURL  = "https://www.imdb.com"
	defaultLanguage = "en-US"
	userAgent       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxCandidates   = 5
	chartKey        = "chart:top250"
)

// Options configures the backend.
type Options struct {
	// Languages are Accept-Language values indexed by the request region.
	Languages []string

	// Bootstrap names the backend used to find IMDb ids; empty uses the
	// IMDb find page.
	Bootstrap string

	BaseURL    string
	HTTPClient *http.Client
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

// Backend serves movie fields scraped from IMDb title pages.
type Backend struct {
	baseURL   string
	client    *http.Client
	languages []string
	bootstrap string
	cache     *cache.Cache
	limiter   *provider.RateLimiter
	logger    *slog.Logger
}

// New creates an IMDb backend. It needs no credentials.
func New(opts Options) *Backend {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	languages := slices.DeleteFunc(slices.Clone(opts.Languages), func(s string) bool { return strings.TrimSpace(s) == "" })
	if len(languages) == 0 {
		languages = []string{defaultLanguage}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Backend{
		baseURL:   base,
		client:    client,
		languages: languages,
		bootstrap: strings.TrimSpace(opts.Bootstrap),
		cache:     cache.New(ttl, 10*time.Minute),
		limiter:   provider.NewRateLimiter(5, time.Second),
		logger:    log.Or(opts.Logger).With(log.FieldBackend, Name),
	}
}

// Descriptor describes the backend.
func (b *Backend) Descriptor() provider.Descriptor {
	return provider.Descriptor{
		Name:        Name,
		Description: "Internet Movie Database (IMDb) web pages",
		Fields: []provider.Field{
			provider.FieldTitle,
			provider.FieldOriginalTitle,
			provider.FieldYear,
			provider.FieldTop250,
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
			provider.FieldTrailer,
		},
		IDKind:    provider.IDKindImdb,
		Bootstrap: b.bootstrap,
	}
}

// Search looks the title up on the IMDb find page. Results matching the
// requested year are listed first.
func (b *Backend) Search(ctx context.Context, q provider.Query) ([]provider.Candidate, error) {
	if id := titleIDPattern.FindString(q.ImdbID); id != "" {
		return []provider.Candidate{{Title: strings.TrimSpace(q.Title), Year: q.Year, ImdbID: id}}, nil
	}

	title := strings.TrimSpace(q.Title)
	if title == "" {
		return nil, provider.InvalidRequest(Name, "search needs a title or an IMDb ID")
	}
	term := title
	if q.Year > 0 {
		term = fmt.Sprintf("%s %d", title, q.Year)
	}

	values := url.Values{}
	values.Set("q", term)
	values.Set("s", "tt")
	values.Set("ttype", "ft")
	html, err := b.get(ctx, b.baseURL+"/find/?"+values.Encode(), 0)
	if err != nil {
		return nil, err
	}
	results, err := parseFindPage(html)
	if err != nil {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: "parse find page", Err: err}
	}

	if q.Year > 0 {
		slices.SortStableFunc(results, func(a, c searchResult) int {
			return yearRank(a.Year, q.Year) - yearRank(c.Year, q.Year)
		})
	}
	if len(results) > maxCandidates {
		results = results[:maxCandidates]
	}

	candidates := make([]provider.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, provider.Candidate{Title: r.Title, Year: r.Year, ImdbID: r.ID})
	}
	b.logger.Debug("search complete", "title", title, "year", q.Year, "results", len(candidates))
	return candidates, nil
}

func yearRank(year, want int) int {
	if year == want {
		return 0
	}
	return 1
}

// details returns the parsed title page for an IMDb id.
func (b *Backend) details(ctx context.Context, req provider.FieldRequest) (*titlePage, error) {
	id := titleIDPattern.FindString(req.ID)
	if id == "" {
		return nil, provider.InvalidRequest(Name, "invalid IMDb id %q", req.ID)
	}
	language := b.language(req.Region)
	key := "title:" + id + ":" + language
	if cached, found := b.cache.Get(key); found {
		if page, ok := cached.(*titlePage); ok {
			return page, nil
		}
	}

	html, err := b.get(ctx, b.baseURL+"/title/"+id+"/", req.Region)
	if err != nil {
		return nil, err
	}
	page, err := parseTitlePage(id, html)
	if err != nil {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: "parse title page", Err: err}
	}
	if page == nil {
		return nil, provider.NotFound(Name, "title %s not found", id)
	}
	b.cache.Set(key, page, cache.DefaultExpiration)
	return page, nil
}

// chart returns the current Top 250 ranks keyed by IMDb id.
func (b *Backend) chart(ctx context.Context) (map[string]int, error) {
	if cached, found := b.cache.Get(chartKey); found {
		if ranks, ok := cached.(map[string]int); ok {
			return ranks, nil
		}
	}
	html, err := b.get(ctx, b.baseURL+"/chart/top/", 0)
	if err != nil {
		return nil, err
	}
	ranks, err := parseChart(html)
	if err != nil {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: "parse top 250 chart", Err: err}
	}
	if len(ranks) == 0 {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnavailable, Message: "top 250 chart is empty", Retry: true}
	}
	b.cache.Set(chartKey, ranks, cache.DefaultExpiration)
	return ranks, nil
}

func (b *Backend) language(region int) string {
	if region >= 0 && region < len(b.languages) {
		return strings.TrimSpace(b.languages[region])
	}
	return b.languages[0]
}

func (b *Backend) get(ctx context.Context, pageURL string, region int) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, provider.InvalidRequest(Name, "build request: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", b.language(region))
	req.Header.Set("Accept", "text/html")

	resp, err := b.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnavailable, Message: err.Error(), Retry: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(pageURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnavailable, Message: "read response", Retry: true, Err: err}
	}
	if int64(len(body)) > maxPageBytes {
		return nil, &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: fmt.Sprintf("page %s exceeds %d bytes", pageURL, maxPageBytes)}
	}
	return body, nil
}

// maxPageBytes caps how much of a page is read.
var maxPageBytes int64 = 8 << 20

// errHTTPStatus marks non 2xx responses.
var errHTTPStatus = errors.New("unexpected HTTP status")

func statusError(pageURL string, status int) error {
	cause := fmt.Errorf("%w %d for %s", errHTTPStatus, status, pageURL)
	switch status {
	case http.StatusNotFound:
		return &provider.ProviderError{Provider: Name, Code: provider.CodeNotFound, Message: "page not found", Err: cause}
	case http.StatusTooManyRequests:
		return &provider.ProviderError{Provider: Name, Code: provider.CodeRateLimited, Message: "rate limited", Retry: true, RetryAfter: 30, Err: cause}
	case http.StatusForbidden, http.StatusServiceUnavailable:
		return &provider.ProviderError{Provider: Name, Code: provider.CodeUnavailable, Message: "request blocked or service unavailable", Retry: true, RetryAfter: 60, Err: cause}
	default:
		return &provider.ProviderError{Provider: Name, Code: provider.CodeUnknown, Message: fmt.Sprintf("HTTP %d", status), Err: cause}
	}
}
