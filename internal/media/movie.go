package media

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Person is a cast or crew member returned by a backend.
type Person struct {
	Name  string
	Role  string
	Thumb string
}

// Image describes a poster or fanart candidate.
type Image struct {
	URL      string
	ThumbURL string
	Width    int
	Height   int
	Language string
}

// Trailer describes a playable trailer candidate.
type Trailer struct {
	URL     string
	Title   string
	Site    string
	Quality string
}

// Movie is the caller-owned record a scrape run fills in. Only fields that a
// run successfully scrapes are modified; everything else is left untouched.
type Movie struct {
	Title           string
	AlternateTitles []string
	OriginalTitle   string
	Year            int
	Top250          int
	Cast            []Person
	Certification   string
	Mpaa            string
	Country         []string
	Director        []Person
	Genre           []string
	Language        []string
	Outline         string
	Plot            string
	Rating          float64
	ReleaseDate     time.Time
	Runtime         int
	Studio          []string
	Tagline         string
	Votes           int
	Writers         []Person

	CurrentPosterURL    string
	AlternativePosters  []Image
	CurrentFanartURL    string
	AlternativeFanart   []Image
	AlternativeTrailers []Trailer

	// Cross-reference identifiers shared by several backends.
	ImdbID string
	TmdbID string

	// ProviderIDs holds backend specific identifiers keyed by backend name.
	ProviderIDs map[string]string

	// FilePath points at the local media file, if any.
	FilePath string

	// ScraperGroup names the group a run should use when none is passed explicitly.
	ScraperGroup string
}

// Label returns a short human readable name for log and progress output.
func (m *Movie) Label() string {
	if m == nil {
		return ""
	}
	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = m.FilePath
	}
	if m.Year > 0 {
		return fmt.Sprintf("%s (%d)", title, m.Year)
	}
	return title
}

// ProviderID returns the stored identifier for a backend.
func (m *Movie) ProviderID(name string) string {
	if m == nil || m.ProviderIDs == nil {
		return ""
	}
	return m.ProviderIDs[name]
}

// SetProviderID stores a backend specific identifier, allocating the map on first use.
func (m *Movie) SetProviderID(name, id string) {
	if m.ProviderIDs == nil {
		m.ProviderIDs = make(map[string]string)
	}
	m.ProviderIDs[name] = id
}

// Clone returns a deep copy of the movie.
func (m *Movie) Clone() *Movie {
	if m == nil {
		return nil
	}
	c := *m
	c.AlternateTitles = slices.Clone(m.AlternateTitles)
	c.Cast = slices.Clone(m.Cast)
	c.Country = slices.Clone(m.Country)
	c.Director = slices.Clone(m.Director)
	c.Genre = slices.Clone(m.Genre)
	c.Language = slices.Clone(m.Language)
	c.Studio = slices.Clone(m.Studio)
	c.Writers = slices.Clone(m.Writers)
	c.AlternativePosters = slices.Clone(m.AlternativePosters)
	c.AlternativeFanart = slices.Clone(m.AlternativeFanart)
	c.AlternativeTrailers = slices.Clone(m.AlternativeTrailers)
	c.ProviderIDs = maps.Clone(m.ProviderIDs)
	return &c
}

// NormalizeImdbID returns the canonical "tt" + 7 digit form of an IMDb id.
// Values that are not numeric after stripping the prefix are returned trimmed
// but otherwise unchanged.
func NormalizeImdbID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	digits := strings.TrimPrefix(strings.ToLower(id), "tt")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return id
	}
	return fmt.Sprintf("tt%07d", n)
}
