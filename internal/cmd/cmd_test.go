package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Digital-Shane/movie-meta/internal/config"
	"github.com/Digital-Shane/movie-meta/internal/core"
	"github.com/Digital-Shane/movie-meta/internal/provider"
)

// fakeBackend answers Title, Year and Plot for any IMDb id.
type fakeBackend struct {
	plotErr  error
	searches atomic.Int32
}

func (f *fakeBackend) Descriptor() provider.Descriptor {
	return provider.Descriptor{
		Name:        "Fake",
		Description: "In-memory test backend",
		Fields:      []provider.Field{provider.FieldTitle, provider.FieldYear, provider.FieldPlot},
		IDKind:      provider.IDKindImdb,
	}
}

func (f *fakeBackend) Search(_ context.Context, q provider.Query) ([]provider.Candidate, error) {
	f.searches.Add(1)
	return []provider.Candidate{{Title: q.Title, Year: q.Year, ImdbID: "tt0113277"}}, nil
}

func (f *fakeBackend) ScrapeTitle(context.Context, provider.FieldRequest) (provider.TitleResult, error) {
	return provider.TitleResult{Title: "Heat"}, nil
}

func (f *fakeBackend) ScrapeYear(context.Context, provider.FieldRequest) (int, error) {
	return 1995, nil
}

func (f *fakeBackend) ScrapePlot(_ context.Context, req provider.FieldRequest) (string, error) {
	if f.plotErr != nil {
		return "", f.plotErr
	}
	return "Robbers and a detective " + req.ID, nil
}

func useBackends(t *testing.T, backends ...provider.Backend) {
	t.Helper()
	orig := buildRegistry
	buildRegistry = func(*config.Config, *slog.Logger) (*provider.Registry, error) {
		return provider.NewRegistry(backends...)
	}
	t.Cleanup(func() { buildRegistry = orig })
}

// testGlobals writes a config file with a "Quick" group routed to the fake
// backend and isolates the run from the user's environment.
func testGlobals(t *testing.T, extra string) globalOptions {
	t.Helper()
	for _, key := range []string{"TMDB_API_KEY", "OMDB_API_KEY", "TVDB_API_KEY", "LOG_LEVEL", "LOG_FORMAT", "DEFAULT_GROUP"} {
		t.Setenv(config.EnvPrefix+"_"+key, "")
	}

	dir := t.TempDir()
	content := `
[scrape]
groups_dir = '` + filepath.Join(dir, "groups") + `'
` + extra + `

[logging]
level = "error"

[groups.Quick]
Title = "Fake"
Year = "Fake"
Plot = "Fake"
`
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return globalOptions{ConfigPath: path}
}

func TestRunScrapeRendersReport(t *testing.T) {
	fake := &fakeBackend{}
	useBackends(t, fake)
	globals := testGlobals(t, "")

	var stdout, stderr bytes.Buffer
	err := runScrape(context.Background(), globals, scrapeOptions{Title: "Heat", Year: 1995, Group: "quick"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("runScrape() error = %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"Heat (1995)", "group Quick", "SUCCESS", "applied 3, failed 0, skipped 20", "tt0113277"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := fake.searches.Load(); n != 1 {
		t.Errorf("searches = %d, want 1", n)
	}
}

func TestRunScrapeFailureReturnsRunFailed(t *testing.T) {
	useBackends(t, &fakeBackend{plotErr: provider.NotFound("Fake", "no plot")})
	globals := testGlobals(t, `default_group = "Quick"`)

	var stdout, stderr bytes.Buffer
	err := runScrape(context.Background(), globals, scrapeOptions{Title: "Heat"}, &stdout, &stderr)
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("runScrape() error = %v, want errRunFailed", err)
	}
	if out := stdout.String(); !strings.Contains(out, "FAILED") || !strings.Contains(out, "no plot") {
		t.Errorf("output does not report the failed field:\n%s", out)
	}
}

func TestRunScrapeErrors(t *testing.T) {
	useBackends(t, &fakeBackend{})

	tests := []struct {
		name string
		opts scrapeOptions
		want error
	}{
		{name: "unknown group", opts: scrapeOptions{Title: "Heat", Group: "Missing"}, want: core.ErrUnknownScraperGroup},
		{name: "no group", opts: scrapeOptions{Title: "Heat"}, want: core.ErrNoScraperGroup},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			globals := testGlobals(t, "")
			var stdout, stderr bytes.Buffer
			err := runScrape(context.Background(), globals, tc.opts, &stdout, &stderr)
			if !errors.Is(err, tc.want) {
				t.Errorf("runScrape() error = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("nothing to scrape", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := runScrape(context.Background(), testGlobals(t, ""), scrapeOptions{Group: "Quick"}, &stdout, &stderr); err == nil {
			t.Error("runScrape() with no movie succeeded")
		}
	})
}

func TestRunScrapeWithTestGroup(t *testing.T) {
	useBackends(t, &fakeBackend{})
	globals := testGlobals(t, "")

	var stdout, stderr bytes.Buffer
	err := runScrape(context.Background(), globals, scrapeOptions{ImdbID: "113277", TestGroup: true}, &stdout, &stderr)
	// The test group routes to Imdb and TheMovieDB, neither of which is registered.
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("runScrape() error = %v, want errRunFailed", err)
	}
	if out := stdout.String(); !strings.Contains(out, "group Test") || !strings.Contains(out, "backend not found") {
		t.Errorf("output:\n%s", out)
	}
}

func TestScrapeOptionsMovie(t *testing.T) {
	movie, err := scrapeOptions{File: "/movies/Heat (1995)/Heat.1995.1080p.BluRay.mkv", ImdbID: "tt113277"}.movie()
	if err != nil {
		t.Fatalf("movie() error = %v", err)
	}
	if movie.Title != "Heat" || movie.Year != 1995 || movie.ImdbID != "tt0113277" {
		t.Errorf("movie() = %+v", movie)
	}

	movie, err = scrapeOptions{File: "/movies/Heat.1995.mkv", Title: "Heat Director's Cut", Year: 1996}.movie()
	if err != nil {
		t.Fatalf("movie() error = %v", err)
	}
	if movie.Title != "Heat Director's Cut" || movie.Year != 1996 || movie.FilePath != "/movies/Heat.1995.mkv" {
		t.Errorf("flags should override the file name, got %+v", movie)
	}
}
