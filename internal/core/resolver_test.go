package core

import (
	"context"
	"errors"
	"testing"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/google/go-cmp/cmp"
)

func TestResolveDirectKinds(t *testing.T) {
	movie := &media.Movie{
		Title:       "Heat",
		ImdbID:      "113277",
		TmdbID:      "949",
		FilePath:    "/movies/Heat.mkv",
		ProviderIDs: map[string]string{"TVDB": "1234"},
	}

	tests := []struct {
		name    string
		backend *fakeBackend
		want    string
	}{
		{"none", newFake("Static", provider.IDKindNone), ""},
		{"title", newFake("ByTitle", provider.IDKindTitle), "Heat"},
		{"file", newFake("MediaInfo", provider.IDKindFile), "/movies/Heat.mkv"},
		{"stored imdb normalized", newFake("Imdb", provider.IDKindImdb), "tt0113277"},
		{"stored tmdb", newFake("TheMovieDB", provider.IDKindTmdb), "949"},
		{"stored provider id", newFake("TVDB", provider.IDKindProvider), "1234"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(movie, mapFinder{}, nil)
			got, err := r.Resolve(context.Background(), tc.backend)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("Resolve() = %q, want %q", got, tc.want)
			}
			if n := tc.backend.searchCount(); n != 0 {
				t.Errorf("searches = %d, want 0", n)
			}
		})
	}
}

func TestResolveDirectKindsMissingInput(t *testing.T) {
	r := NewResolver(&media.Movie{}, mapFinder{}, nil)
	for _, b := range []*fakeBackend{
		newFake("ByTitle", provider.IDKindTitle),
		newFake("MediaInfo", provider.IDKindFile),
	} {
		if _, err := r.Resolve(context.Background(), b); !errors.Is(err, ErrIdentifierUnresolvable) {
			t.Errorf("Resolve(%s) error = %v, want ErrIdentifierUnresolvable", b.desc.Name, err)
		}
	}
}

func TestResolveThroughBootstrap(t *testing.T) {
	tmdb := newFake("TheMovieDB", provider.IDKindTmdb)
	tmdb.desc.DualID = true
	tmdb.candidates = []provider.Candidate{
		{Title: "Heat", Year: 1995, ImdbID: "tt0113277", TmdbID: "949"},
		{Title: "Heat", Year: 1986, ImdbID: "tt0093164", TmdbID: "12345"},
	}
	omdb := newFake("OMDb", provider.IDKindImdb)
	omdb.desc.Bootstrap = "TheMovieDB"

	movie := &media.Movie{Title: "Heat", Year: 1995}
	r := NewResolver(movie, mapFinder{"TheMovieDB": tmdb, "OMDb": omdb}, nil)

	got, err := r.Resolve(context.Background(), omdb)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "tt0113277" {
		t.Errorf("Resolve() = %q, want tt0113277", got)
	}
	if omdb.searchCount() != 0 || tmdb.searchCount() != 1 {
		t.Errorf("searches omdb=%d tmdb=%d, want 0 and 1", omdb.searchCount(), tmdb.searchCount())
	}

	want := provider.Query{Title: "Heat", Year: 1995}
	if diff := cmp.Diff(want, tmdb.searches[0]); diff != "" {
		t.Errorf("search query (-want +got):\n%s", diff)
	}

	// The bootstrap search taught the movie its TMDB id, so TheMovieDB needs
	// no search of its own.
	if movie.TmdbID != "949" || movie.ImdbID != "tt0113277" {
		t.Errorf("movie ids = %q/%q, want learned", movie.ImdbID, movie.TmdbID)
	}
	if _, err := r.Resolve(context.Background(), tmdb); err != nil {
		t.Fatalf("Resolve(tmdb) error = %v", err)
	}
	if n := tmdb.searchCount(); n != 1 {
		t.Errorf("tmdb searches = %d, want 1", n)
	}
}

func TestResolveSharedBootstrapSearchedOnce(t *testing.T) {
	tmdb := newFake("TheMovieDB", provider.IDKindTmdb)
	tmdb.candidates = []provider.Candidate{{Title: "Heat", Year: 1995, TmdbID: "949"}}
	imdb := newFake("Imdb", provider.IDKindImdb)
	imdb.desc.Bootstrap = "TheMovieDB"
	omdb := newFake("OMDb", provider.IDKindImdb)
	omdb.desc.Bootstrap = "TheMovieDB"

	movie := &media.Movie{Title: "Heat", Year: 1995}
	r := NewResolver(movie, mapFinder{"TheMovieDB": tmdb, "Imdb": imdb, "OMDb": omdb}, nil)

	for _, b := range []*fakeBackend{imdb, omdb} {
		if _, err := r.Resolve(context.Background(), b); !errors.Is(err, ErrIdentifierUnresolvable) {
			t.Errorf("Resolve(%s) error = %v, want ErrIdentifierUnresolvable", b.desc.Name, err)
		}
	}
	if n := tmdb.searchCount(); n != 1 {
		t.Errorf("TheMovieDB searches = %d, want 1", n)
	}
	if n := r.Searches("TheMovieDB"); n != 1 {
		t.Errorf("Searches() = %d, want 1", n)
	}

	// The TMDB id learned from that search serves TheMovieDB itself.
	got, err := r.Resolve(context.Background(), tmdb)
	if err != nil || got != "949" {
		t.Errorf("Resolve(tmdb) = %q, %v; want 949", got, err)
	}
	if n := tmdb.searchCount(); n != 1 {
		t.Errorf("TheMovieDB searches after own resolve = %d, want 1", n)
	}
}

func TestResolveMissingBootstrapSearchesTarget(t *testing.T) {
	omdb := newFake("OMDb", provider.IDKindImdb)
	omdb.desc.Bootstrap = "TheMovieDB"
	omdb.candidates = []provider.Candidate{{ImdbID: "tt0113277"}}

	r := NewResolver(&media.Movie{Title: "Heat"}, mapFinder{"OMDb": omdb}, nil)
	got, err := r.Resolve(context.Background(), omdb)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "tt0113277" || omdb.searchCount() != 1 {
		t.Errorf("Resolve() = %q after %d searches, want tt0113277 after 1", got, omdb.searchCount())
	}
}

func TestResolveLearnsProviderIDs(t *testing.T) {
	tvdb := newFake("TVDB", provider.IDKindProvider)
	tvdb.candidates = []provider.Candidate{
		provider.Candidate{Title: "Heat", ImdbID: "tt0113277"}.WithProviderID("TVDB", "81189"),
	}

	movie := &media.Movie{Title: "Heat"}
	r := NewResolver(movie, mapFinder{}, nil)
	got, err := r.Resolve(context.Background(), tvdb)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "81189" || movie.ProviderID("TVDB") != "81189" {
		t.Errorf("Resolve() = %q, stored %q; want 81189", got, movie.ProviderID("TVDB"))
	}
	if id, ok := r.Known("tvdb"); !ok || id != "81189" {
		t.Errorf("Known() = %q, %v", id, ok)
	}
}

func TestResolveCandidateWithoutUsableID(t *testing.T) {
	tmdb := newFake("TheMovieDB", provider.IDKindTmdb)
	tmdb.candidates = []provider.Candidate{{Title: "Heat", ImdbID: "tt0113277"}}

	r := NewResolver(&media.Movie{Title: "Heat"}, mapFinder{}, nil)
	if _, err := r.Resolve(context.Background(), tmdb); !errors.Is(err, ErrIdentifierUnresolvable) {
		t.Errorf("Resolve() error = %v, want ErrIdentifierUnresolvable", err)
	}
}

func TestResolveMemoizesFailures(t *testing.T) {
	imdb := newFake("Imdb", provider.IDKindImdb)
	imdb.searchErr = provider.NotFound("Imdb", "nothing matched")

	r := NewResolver(&media.Movie{Title: "Nonexistent"}, mapFinder{}, nil)
	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), imdb)
		if !errors.Is(err, ErrIdentifierUnresolvable) {
			t.Fatalf("attempt %d error = %v, want ErrIdentifierUnresolvable", i, err)
		}
		var provErr *provider.ProviderError
		if !errors.As(err, &provErr) {
			t.Errorf("attempt %d error = %v, want wrapped ProviderError", i, err)
		}
	}
	if n := r.Searches("Imdb"); n != 1 {
		t.Errorf("Searches() = %d, want 1", n)
	}
}

func TestResolveDoesNotMemoizeCancellation(t *testing.T) {
	imdb := newFake("Imdb", provider.IDKindImdb)
	imdb.searchErr = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(&media.Movie{Title: "Heat"}, mapFinder{}, nil)
	if _, err := r.Resolve(ctx, imdb); !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}

	imdb.searchErr = nil
	imdb.candidates = []provider.Candidate{{ImdbID: "tt0113277"}}
	got, err := r.Resolve(context.Background(), imdb)
	if err != nil || got != "tt0113277" {
		t.Errorf("Resolve() after cancel = %q, %v; want tt0113277", got, err)
	}
}
