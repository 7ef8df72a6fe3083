package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if err := want.normalize(); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.Scrape.GroupsDir; got != filepath.Join(home, ".movie-meta", "groups") {
		t.Errorf("groups_dir = %q, want expanded home path", got)
	}
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
[tmdb]
api_key = " tmdb-key "
languages = ["en-US", "", "de-DE"]

[omdb]
api_key = "omdb-key"

[scrape]
region = 1
field_timeout_seconds = 10
workers = 0
default_group = "Favourites"

[logging]
level = "DEBUG"
format = "json"

[groups.Favourites]
Title = "Imdb"
Poster = "TheMovieDB"
Runtime = "Use MediaInfo Data"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.TMDB.APIKey != "tmdb-key" || cfg.OMDb.APIKey != "omdb-key" {
		t.Errorf("api keys = %q/%q", cfg.TMDB.APIKey, cfg.OMDb.APIKey)
	}
	if diff := cmp.Diff([]string{"en-US", "de-DE"}, cfg.TMDB.Languages); diff != "" {
		t.Errorf("tmdb.languages (-want +got):\n%s", diff)
	}
	if cfg.Scrape.Region != 1 || cfg.FieldTimeout() != 10*time.Second {
		t.Errorf("region/timeout = %d/%v", cfg.Scrape.Region, cfg.FieldTimeout())
	}
	if cfg.Scrape.Workers != defaultWorkers {
		t.Errorf("workers = %d, want default %d", cfg.Scrape.Workers, defaultWorkers)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if got := cfg.Groups["Favourites"]["Runtime"]; got != "Use MediaInfo Data" {
		t.Errorf("group runtime = %q", got)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "[tmdb]\napi_key = \"from-file\"\n")
	t.Setenv("MOVIEMETA_TMDB_API_KEY", "from-env")
	t.Setenv("MOVIEMETA_TVDB_API_KEY", "tvdb-env")
	t.Setenv("MOVIEMETA_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TMDB.APIKey != "from-env" || cfg.TVDB.APIKey != "tvdb-env" || cfg.Logging.Level != "warn" {
		t.Errorf("overrides not applied: tmdb=%q tvdb=%q level=%q", cfg.TMDB.APIKey, cfg.TVDB.APIKey, cfg.Logging.Level)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "[scrape\nworkers = 3\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative region", mutate: func(c *Config) { c.Scrape.Region = -1 }, wantErr: "scrape.region"},
		{name: "negative timeout", mutate: func(c *Config) { c.Scrape.FieldTimeoutSeconds = -5 }, wantErr: "field_timeout_seconds"},
		{name: "too many workers", mutate: func(c *Config) { c.Scrape.Workers = 100 }, wantErr: "scrape.workers"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{
			name:    "unknown group field",
			mutate:  func(c *Config) { c.Groups = map[string]map[string]string{"Broken": {"Colour": "Imdb"}} },
			wantErr: "groups.Broken",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.OMDb.APIKey = "abc"
	cfg.Groups = map[string]map[string]string{"Mine": {"Title": "OMDb"}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.OMDb.APIKey != "abc" || loaded.Groups["Mine"]["Title"] != "OMDb" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
