package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadBatchFile(t *testing.T) {
	want := []batchEntry{
		{Title: "Heat", Year: 1995, Group: "Quick"},
		{ImdbID: "tt0468569"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "movies.toml",
			content: `
[[movies]]
title = "Heat"
year = 1995
group = "Quick"

[[movies]]
imdb_id = "tt0468569"
`,
		},
		{
			name: "yaml",
			file: "movies.yaml",
			content: `movies:
  - title: Heat
    year: 1995
    group: Quick
  - imdb_id: tt0468569
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := loadBatchFile(writeFile(t, tc.file, tc.content))
			if err != nil {
				t.Fatalf("loadBatchFile() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("loadBatchFile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadBatchFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unsupported type", file: "movies.json", content: `{}`},
		{name: "empty list", file: "movies.toml", content: ``},
		{name: "unknown key", file: "movies.toml", content: "[[movies]]\nname = \"Heat\"\n"},
		{name: "unknown yaml key", file: "movies.yml", content: "movies:\n  - name: Heat\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadBatchFile(writeFile(t, tc.file, tc.content)); err == nil {
				t.Error("loadBatchFile() succeeded, want error")
			}
		})
	}
}

func TestRunBatch(t *testing.T) {
	useBackends(t, &fakeBackend{})
	globals := testGlobals(t, "")
	list := writeFile(t, "movies.toml", `
[[movies]]
title = "Heat"
year = 1995

[[movies]]
title = "Ronin"
group = "Quick"
`)

	var stdout, stderr bytes.Buffer
	err := runBatch(context.Background(), globals, batchOptions{Path: list, Group: "Quick", Workers: 2}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("runBatch() error = %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"Heat (1995)", "Ronin", "2/2 movies processed, 0 failed, 2 workers"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Heat (1995)") > strings.Index(out, "Ronin") {
		t.Errorf("rows are not in input order:\n%s", out)
	}
}

func TestRunBatchReportsFailures(t *testing.T) {
	useBackends(t, &fakeBackend{plotErr: provider.NotFound("Fake", "no plot")})
	globals := testGlobals(t, "")
	list := writeFile(t, "movies.yaml", "movies:\n  - title: Heat\n    group: Quick\n  - title: Ronin\n    group: Missing\n")

	var stdout, stderr bytes.Buffer
	err := runBatch(context.Background(), globals, batchOptions{Path: list}, &stdout, &stderr)
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("runBatch() error = %v, want errRunFailed", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "unknown scraper group") || !strings.Contains(out, "2 failed") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRunBatchRejectsBadEntry(t *testing.T) {
	useBackends(t, &fakeBackend{})
	list := writeFile(t, "movies.toml", "[[movies]]\nyear = 1995\n")

	var stdout, stderr bytes.Buffer
	err := runBatch(context.Background(), testGlobals(t, ""), batchOptions{Path: list}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "entry 1") {
		t.Errorf("runBatch() error = %v, want entry error", err)
	}
}
