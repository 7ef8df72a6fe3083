package omdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/Digital-Shane/omdb"
)

// movieRecord holds the OMDb movie fields the backend maps.
type movieRecord struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	ImdbID     string `json:"imdbID"`
	Production string `json:"Production"`
}

// normalize clears OMDb's "N/A" placeholders.
func (m *movieRecord) normalize() {
	for _, field := range []*string{
		&m.Title, &m.Year, &m.Rated, &m.Released, &m.Runtime, &m.Genre,
		&m.Director, &m.Writer, &m.Actors, &m.Plot, &m.Language, &m.Country,
		&m.Poster, &m.ImdbRating, &m.ImdbVotes, &m.ImdbID, &m.Production,
	} {
		*field = strings.TrimSpace(*field)
		if strings.EqualFold(*field, "N/A") {
			*field = ""
		}
	}
}

func (m *movieRecord) year() int {
	year, err := strconv.Atoi(omdb.FirstYear(m.Year))
	if err != nil {
		return 0
	}
	return year
}

func notFound(req provider.FieldRequest, what string) error {
	return provider.NotFound(Name, "no %s for %s", what, req.ID)
}

func (b *Backend) ScrapeTitle(ctx context.Context, req provider.FieldRequest) (provider.TitleResult, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return provider.TitleResult{}, err
	}
	if m.Title == "" {
		return provider.TitleResult{}, notFound(req, "title")
	}
	return provider.TitleResult{Title: m.Title}, nil
}

func (b *Backend) ScrapeYear(ctx context.Context, req provider.FieldRequest) (int, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	if year := m.year(); year > 0 {
		return year, nil
	}
	return 0, notFound(req, "year")
}

func (b *Backend) ScrapeCast(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return peopleOr(m.Actors, req, "cast")
}

func (b *Backend) ScrapeDirector(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return peopleOr(m.Director, req, "director")
}

func (b *Backend) ScrapeWriters(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return peopleOr(m.Writer, req, "writers")
}

// ScrapeCertification returns the US rating in "Country:Rating" form.
func (b *Backend) ScrapeCertification(ctx context.Context, req provider.FieldRequest) (string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return "", err
	}
	if m.Rated == "" {
		return "", notFound(req, "certification")
	}
	return "USA:" + m.Rated, nil
}

func (b *Backend) ScrapeMpaa(ctx context.Context, req provider.FieldRequest) (string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return "", err
	}
	if m.Rated == "" || strings.EqualFold(m.Rated, "Not Rated") || strings.EqualFold(m.Rated, "Unrated") {
		return "", notFound(req, "MPAA rating")
	}
	return "Rated " + m.Rated, nil
}

func (b *Backend) ScrapeCountry(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return listOr(m.Country, req, "country")
}

func (b *Backend) ScrapeGenre(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return listOr(m.Genre, req, "genre")
}

func (b *Backend) ScrapeLanguage(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return listOr(m.Language, req, "language")
}

func (b *Backend) ScrapeStudio(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return listOr(m.Production, req, "studio")
}

func (b *Backend) ScrapePlot(ctx context.Context, req provider.FieldRequest) (string, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return "", err
	}
	if m.Plot == "" {
		return "", notFound(req, "plot")
	}
	return m.Plot, nil
}

func (b *Backend) ScrapeRating(ctx context.Context, req provider.FieldRequest) (float64, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	rating, err := strconv.ParseFloat(m.ImdbRating, 64)
	if err != nil {
		return 0, notFound(req, "rating")
	}
	return rating, nil
}

func (b *Backend) ScrapeVotes(ctx context.Context, req provider.FieldRequest) (int, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	votes, err := strconv.Atoi(strings.ReplaceAll(m.ImdbVotes, ",", ""))
	if err != nil {
		return 0, notFound(req, "votes")
	}
	return votes, nil
}

func (b *Backend) ScrapeReleaseDate(ctx context.Context, req provider.FieldRequest) (time.Time, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return time.Time{}, err
	}
	released, err := time.Parse("02 Jan 2006", m.Released)
	if err != nil {
		return time.Time{}, notFound(req, "release date")
	}
	return released, nil
}

func (b *Backend) ScrapeRuntime(ctx context.Context, req provider.FieldRequest) (int, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	if minutes := parseRuntime(m.Runtime); minutes > 0 {
		return minutes, nil
	}
	return 0, notFound(req, "runtime")
}

func (b *Backend) ScrapePoster(ctx context.Context, req provider.FieldRequest) ([]media.Image, error) {
	m, err := b.details(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if m.Poster == "" {
		return nil, notFound(req, "poster")
	}
	return []media.Image{{URL: m.Poster, ThumbURL: m.Poster}}, nil
}

func listOr(value string, req provider.FieldRequest, what string) ([]string, error) {
	items := omdb.SplitAndTrim(value)
	if len(items) == 0 {
		return nil, notFound(req, what)
	}
	return items, nil
}

// peopleOr splits credits like "Jonathan Nolan (screenplay), Christopher Nolan"
// into people, keeping the parenthesised part as the role.
func peopleOr(value string, req provider.FieldRequest, what string) ([]media.Person, error) {
	seen := make(map[string]bool)
	var people []media.Person
	for _, item := range omdb.SplitAndTrim(value) {
		name, role := item, ""
		if open := strings.Index(item, "("); open > 0 && strings.HasSuffix(item, ")") {
			name = strings.TrimSpace(item[:open])
			role = strings.TrimSpace(item[open+1 : len(item)-1])
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		people = append(people, media.Person{Name: name, Role: role})
	}
	if len(people) == 0 {
		return nil, notFound(req, what)
	}
	return people, nil
}

// parseRuntime converts runtime strings (e.g., "136 min") to integer minutes.
func parseRuntime(value string) int {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return minutes
}
