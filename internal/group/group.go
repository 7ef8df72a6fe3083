// Package group models scraper groups: named, immutable mappings from every
// movie field to the backend (or sentinel) that should provide it.
package group

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Digital-Shane/movie-meta/internal/provider"
)

// MediaInfoBackend is the registered backend the media-info sentinel maps to.
const MediaInfoBackend = "MediaInfo"

// TestGroupName is the name of the built-in group returned by TestGroup.
const TestGroupName = "Test"

// Kind classifies an Assignment.
type Kind int

const (
	// KindNone leaves the field alone.
	KindNone Kind = iota
	// KindMediaInfo derives the field from the local media file.
	KindMediaInfo
	// KindBackend routes the field to a named backend.
	KindBackend
)

// Assignment is the value a group stores for one field.
type Assignment struct {
	Kind    Kind
	Backend string
}

// ParseAssignment interprets a configured value. Empty strings, "<None>" and
// "none" mean no backend; "Use MediaInfo Data", "<MediaInfo>" and "mediainfo"
// select the media-info sentinel. Anything else names a backend.
func ParseAssignment(value string) Assignment {
	v := strings.TrimSpace(value)
	switch {
	case v == "", v == provider.NoneChoice, strings.EqualFold(v, "none"), strings.EqualFold(v, "<none>"):
		return Assignment{Kind: KindNone}
	case v == provider.MediaInfoChoice, strings.EqualFold(v, "<mediainfo>"), strings.EqualFold(v, "mediainfo"):
		return Assignment{Kind: KindMediaInfo, Backend: MediaInfoBackend}
	default:
		return Assignment{Kind: KindBackend, Backend: v}
	}
}

// BackendName returns the registry name to look up, or "" for KindNone.
func (a Assignment) BackendName() string {
	switch a.Kind {
	case KindMediaInfo:
		return MediaInfoBackend
	case KindBackend:
		return a.Backend
	default:
		return ""
	}
}

func (a Assignment) String() string {
	switch a.Kind {
	case KindNone:
		return provider.NoneChoice
	case KindMediaInfo:
		return provider.MediaInfoChoice
	default:
		return a.Backend
	}
}

// FieldAssignment pairs a field with its assignment.
type FieldAssignment struct {
	Field      provider.Field
	Assignment Assignment
}

// Group is an immutable scraper group. Every field has exactly one assignment;
// fields that were not configured are KindNone.
type Group struct {
	name        string
	assignments map[provider.Field]Assignment
}

// New builds a group from field-name/value pairs as found in configuration.
// Unknown field names and two keys naming the same field are rejected.
func New(name string, pairs map[string]string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("scraper group: empty name")
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	g := &Group{name: name, assignments: make(map[provider.Field]Assignment, len(pairs))}
	seen := make(map[provider.Field]string, len(pairs))
	for _, key := range keys {
		field, err := provider.ParseField(key)
		if err != nil {
			return nil, fmt.Errorf("scraper group %s: %w", name, err)
		}
		if prev, dup := seen[field]; dup {
			return nil, fmt.Errorf("scraper group %s: field %s assigned twice (%q and %q)", name, field, prev, key)
		}
		seen[field] = key
		g.assignments[field] = ParseAssignment(pairs[key])
	}
	return g, nil
}

// FromFields builds a group from typed field assignments.
func FromFields(name string, fields map[provider.Field]string) (*Group, error) {
	pairs := make(map[string]string, len(fields))
	for f, v := range fields {
		if !f.Valid() {
			return nil, fmt.Errorf("scraper group %s: invalid field %v", name, f)
		}
		pairs[f.String()] = v
	}
	return New(name, pairs)
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Lookup returns the assignment for f.
func (g *Group) Lookup(f provider.Field) Assignment {
	if g == nil {
		return Assignment{}
	}
	return g.assignments[f]
}

// Assignments lists every field in canonical order with its assignment.
func (g *Group) Assignments() []FieldAssignment {
	fields := provider.Fields()
	out := make([]FieldAssignment, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldAssignment{Field: f, Assignment: g.Lookup(f)})
	}
	return out
}

// Backends returns the distinct backend names the group refers to, sorted.
func (g *Group) Backends() []string {
	set := make(map[string]struct{})
	for _, a := range g.assignments {
		if name := a.BackendName(); name != "" {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Finder is the registry lookup used by Unresolved.
type Finder interface {
	FindByName(name string) (provider.Backend, error)
}

// Unresolved returns the assignments whose backend is missing from reg or
// does not declare the field. Such fields fail at run time; this lets
// callers warn about them up front.
func (g *Group) Unresolved(reg Finder) []FieldAssignment {
	var out []FieldAssignment
	for _, fa := range g.Assignments() {
		name := fa.Assignment.BackendName()
		if name == "" {
			continue
		}
		b, err := reg.FindByName(name)
		if err != nil || !b.Descriptor().Supports(fa.Field) {
			out = append(out, fa)
		}
	}
	return out
}

// TestGroup returns the built-in group used for quick checks: Imdb for most
// fields and TheMovieDB for the outline, tagline, artwork and trailers.
func TestGroup() *Group {
	fields := make(map[provider.Field]string)
	for _, f := range provider.Fields() {
		fields[f] = "Imdb"
	}
	for _, f := range []provider.Field{
		provider.FieldOutline,
		provider.FieldTagline,
		provider.FieldFanart,
		provider.FieldPoster,
		provider.FieldTrailer,
	} {
		fields[f] = "TheMovieDB"
	}

	g, err := FromFields(TestGroupName, fields)
	if err != nil {
		panic(err)
	}
	return g
}
