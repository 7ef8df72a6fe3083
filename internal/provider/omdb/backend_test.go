package omdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/google/go-cmp/cmp"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func jsonResponse(status int, body string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

const darkKnightJSON = `{
    "Title": "The Dark Knight",
    "Year": "2008",
    "Rated": "PG-13",
    "Released": "18 Jul 2008",
    "Runtime": "152 min",
    "Genre": "Action, Crime, Drama",
    "Director": "Christopher Nolan",
    "Writer": "Jonathan Nolan (screenplay), Christopher Nolan (screenplay), Christopher Nolan (story)",
    "Actors": "Christian Bale, Heath Ledger, Aaron Eckhart",
    "Plot": "When the menace known as the Joker wreaks havoc and chaos on the people of Gotham, Batman must accept one of the greatest psychological and physical tests of his ability to fight injustice.",
    "Language": "English, Mandarin",
    "Country": "United States, United Kingdom",
    "Poster": "https://m.media-amazon.com/images/M/dark-knight.jpg",
    "imdbRating": "9.0",
    "imdbVotes": "2,901,245",
    "imdbID": "tt0468569",
    "Type": "movie",
    "Production": "N/A",
    "Response": "True"
}`

func newTestBackend(t *testing.T, fn roundTripFunc) *Backend {
	t.Helper()
	b, err := New(Options{APIKey: "testing", Bootstrap: "TheMovieDB", HTTPClient: newTestClient(fn)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Options{APIKey: "  "}); err == nil {
		t.Fatal("expected error when api key is missing")
	}
}

func TestDescriptor(t *testing.T) {
	b := newTestBackend(t, nil)
	desc := b.Descriptor()
	if desc.IDKind != provider.IDKindImdb || desc.Bootstrap != "TheMovieDB" {
		t.Errorf("Descriptor() = %+v", desc)
	}
	for _, f := range desc.Fields {
		if !provider.Implements(b, f) {
			t.Errorf("declared field %s is not implemented", f)
		}
	}
}

func TestSearchByTitle(t *testing.T) {
	b := newTestBackend(t, func(req *http.Request) (*http.Response, error) {
		if q := req.URL.RawQuery; !strings.Contains(q, "Dark") || !strings.Contains(q, "2008") {
			t.Errorf("query = %q", q)
		}
		return jsonResponse(200, darkKnightJSON), nil
	})

	got, err := b.Search(context.Background(), provider.Query{Title: "The Dark Knight", Year: 2008})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []provider.Candidate{{Title: "The Dark Knight", Year: 2008, ImdbID: "tt0468569"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchNotFoundIsEmpty(t *testing.T) {
	b := newTestBackend(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"Response": "False", "Error": "Movie not found!"}`), nil
	})

	got, err := b.Search(context.Background(), provider.Query{Title: "Nothing Like This"})
	if err != nil || len(got) != 0 {
		t.Errorf("Search() = %v, %v; want empty, nil", got, err)
	}
}

func TestFieldScrapes(t *testing.T) {
	var calls atomic.Int32
	b := newTestBackend(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		if q := req.URL.RawQuery; !strings.Contains(q, "tt0468569") {
			t.Errorf("query = %q, want imdb id", q)
		}
		return jsonResponse(200, darkKnightJSON), nil
	})
	ctx := context.Background()
	req := provider.FieldRequest{ID: "tt0468569"}

	writers, err := b.ScrapeWriters(ctx, req)
	if err != nil {
		t.Fatalf("ScrapeWriters() error = %v", err)
	}
	wantWriters := []media.Person{
		{Name: "Jonathan Nolan", Role: "screenplay"},
		{Name: "Christopher Nolan", Role: "screenplay"},
	}
	if diff := cmp.Diff(wantWriters, writers); diff != "" {
		t.Errorf("ScrapeWriters() (-want +got):\n%s", diff)
	}

	cast, _ := b.ScrapeCast(ctx, req)
	if len(cast) != 3 || cast[1].Name != "Heath Ledger" {
		t.Errorf("ScrapeCast() = %v", cast)
	}

	mpaa, _ := b.ScrapeMpaa(ctx, req)
	cert, _ := b.ScrapeCertification(ctx, req)
	if mpaa != "Rated PG-13" || cert != "USA:PG-13" {
		t.Errorf("mpaa/certification = %q/%q", mpaa, cert)
	}

	votes, _ := b.ScrapeVotes(ctx, req)
	rating, _ := b.ScrapeRating(ctx, req)
	runtime, _ := b.ScrapeRuntime(ctx, req)
	if votes != 2901245 || rating != 9.0 || runtime != 152 {
		t.Errorf("votes/rating/runtime = %d/%v/%d", votes, rating, runtime)
	}

	released, _ := b.ScrapeReleaseDate(ctx, req)
	if !released.Equal(time.Date(2008, 7, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ScrapeReleaseDate() = %v", released)
	}

	countries, _ := b.ScrapeCountry(ctx, req)
	if diff := cmp.Diff([]string{"United States", "United Kingdom"}, countries); diff != "" {
		t.Errorf("ScrapeCountry() (-want +got):\n%s", diff)
	}

	poster, _ := b.ScrapePoster(ctx, req)
	if len(poster) != 1 || poster[0].URL != "https://m.media-amazon.com/images/M/dark-knight.jpg" {
		t.Errorf("ScrapePoster() = %v", poster)
	}

	_, err = b.ScrapeStudio(ctx, req)
	var provErr *provider.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != provider.CodeNotFound {
		t.Errorf("ScrapeStudio() error = %v, want NOT_FOUND for N/A", err)
	}

	if n := calls.Load(); n != 1 {
		t.Errorf("HTTP calls = %d, want 1 (record cached)", n)
	}
}

func TestScrapeRequiresID(t *testing.T) {
	b := newTestBackend(t, nil)
	_, err := b.ScrapePlot(context.Background(), provider.FieldRequest{})
	var provErr *provider.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != provider.CodeInvalidRequest {
		t.Errorf("ScrapePlot() error = %v, want INVALID_REQUEST", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		msg      string
		wantCode string
	}{
		{"Invalid API key!", provider.CodeAuthFailed},
		{"Movie not found!", provider.CodeNotFound},
		{"Request limit reached!", provider.CodeRateLimited},
		{"boom", provider.CodeUnknown},
	}
	for _, tc := range tests {
		var provErr *provider.ProviderError
		if !errors.As(mapError(errors.New(tc.msg)), &provErr) || provErr.Code != tc.wantCode {
			t.Errorf("mapError(%q) = %v, want %s", tc.msg, provErr, tc.wantCode)
		}
	}
	if err := mapError(context.Canceled); !errors.Is(err, context.Canceled) {
		t.Errorf("mapError(canceled) = %v, want passthrough", err)
	}
}
