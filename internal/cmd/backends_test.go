package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunBackends(t *testing.T) {
	useBackends(t, &fakeBackend{})
	globals := testGlobals(t, "")

	var stdout, stderr bytes.Buffer
	if err := runBackends(globals, "", &stdout, &stderr); err != nil {
		t.Fatalf("runBackends() error = %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"Fake", "imdb", "Title, Year, Plot"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunBackendsForField(t *testing.T) {
	useBackends(t, &fakeBackend{})
	globals := testGlobals(t, "")

	tests := []struct {
		field   string
		want    []string
		notWant string
	}{
		{field: "plot", want: []string{"Fake", "choices for Plot", "<None>", "Use MediaInfo Data"}},
		{field: "Tagline", want: []string{"choices for Tagline", "<None>"}, notWant: "Fake"},
	}
	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := runBackends(globals, tc.field, &stdout, &stderr); err != nil {
				t.Fatalf("runBackends(%q) error = %v", tc.field, err)
			}
			out := stdout.String()
			for _, want := range tc.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			if tc.notWant != "" && strings.Contains(out, tc.notWant) {
				t.Errorf("output unexpectedly contains %q:\n%s", tc.notWant, out)
			}
		})
	}

	var stdout, stderr bytes.Buffer
	if err := runBackends(globals, "Soundtrack", &stdout, &stderr); err == nil {
		t.Error("runBackends() accepted an unknown field")
	}
}
