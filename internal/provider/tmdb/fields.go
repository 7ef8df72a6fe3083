package tmdb

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
)

const (
	imageBaseURL = "https://image.tmdb.org/t/p/original"
	thumbBaseURL = "https://image.tmdb.org/t/p/w500"
)

type named struct {
	Name string `json:"name"`
}

type spokenLanguage struct {
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	Iso639      string `json:"iso_639_1"`
}

type castMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path"`
}

type crewMember struct {
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

type imageFile struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Language    string  `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
}

type video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// movieDetails is the flattened movie record with appended responses.
type movieDetails struct {
	ID                  int              `json:"id"`
	ImdbID              string           `json:"imdb_id"`
	Title               string           `json:"title"`
	OriginalTitle       string           `json:"original_title"`
	Overview            string           `json:"overview"`
	Tagline             string           `json:"tagline"`
	ReleaseDate         string           `json:"release_date"`
	Runtime             int              `json:"runtime"`
	VoteAverage         float64          `json:"vote_average"`
	VoteCount           int              `json:"vote_count"`
	PosterPath          string           `json:"poster_path"`
	BackdropPath        string           `json:"backdrop_path"`
	Genres              []named          `json:"genres"`
	ProductionCompanies []named          `json:"production_companies"`
	ProductionCountries []named          `json:"production_countries"`
	SpokenLanguages     []spokenLanguage `json:"spoken_languages"`

	AlternativeTitles struct {
		Titles []struct {
			Title string `json:"title"`
		} `json:"titles"`
	} `json:"alternative_titles"`

	Credits struct {
		Cast []castMember `json:"cast"`
		Crew []crewMember `json:"crew"`
	} `json:"credits"`

	Images struct {
		Backdrops []imageFile `json:"backdrops"`
		Posters   []imageFile `json:"posters"`
	} `json:"images"`

	Videos struct {
		Results []video `json:"results"`
	} `json:"videos"`
}

func (d *movieDetails) candidate() provider.Candidate {
	return provider.Candidate{
		Title:  d.Title,
		Year:   yearOf(d.ReleaseDate),
		ImdbID: d.ImdbID,
		TmdbID: strconv.Itoa(d.ID),
	}
}

func notFound(req provider.FieldRequest, what string) error {
	return provider.NotFound(Name, "no %s for movie %s", what, req.ID)
}

func (b *Backend) ScrapeTitle(ctx context.Context, req provider.FieldRequest) (provider.TitleResult, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return provider.TitleResult{}, err
	}
	if d.Title == "" {
		return provider.TitleResult{}, notFound(req, "title")
	}

	seen := map[string]bool{strings.ToLower(d.Title): true}
	var alternates []string
	for _, alt := range d.AlternativeTitles.Titles {
		key := strings.ToLower(strings.TrimSpace(alt.Title))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		alternates = append(alternates, strings.TrimSpace(alt.Title))
	}
	return provider.TitleResult{Title: d.Title, Alternates: alternates}, nil
}

func (b *Backend) ScrapeOriginalTitle(ctx context.Context, req provider.FieldRequest) (string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return "", err
	}
	if d.OriginalTitle == "" {
		return "", notFound(req, "original title")
	}
	return d.OriginalTitle, nil
}

func (b *Backend) ScrapeYear(ctx context.Context, req provider.FieldRequest) (int, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return 0, err
	}
	year := yearOf(d.ReleaseDate)
	if year == 0 {
		return 0, notFound(req, "release year")
	}
	return year, nil
}

func (b *Backend) ScrapeCast(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	if len(d.Credits.Cast) == 0 {
		return nil, notFound(req, "cast")
	}

	cast := make([]castMember, len(d.Credits.Cast))
	copy(cast, d.Credits.Cast)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })

	people := make([]media.Person, 0, len(cast))
	for _, c := range cast {
		people = append(people, media.Person{Name: c.Name, Role: c.Character, Thumb: thumbURL(c.ProfilePath)})
	}
	return people, nil
}

func (b *Backend) ScrapeCountry(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	return namesOr(d.ProductionCountries, req, "production countries")
}

func (b *Backend) ScrapeDirector(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	people := crew(d, func(c crewMember) bool { return c.Job == "Director" })
	if len(people) == 0 {
		return nil, notFound(req, "director")
	}
	return people, nil
}

func (b *Backend) ScrapeWriters(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	people := crew(d, func(c crewMember) bool { return c.Department == "Writing" })
	if len(people) == 0 {
		return nil, notFound(req, "writers")
	}
	return people, nil
}

func (b *Backend) ScrapeFanart(ctx context.Context, req provider.FieldRequest) ([]media.Image, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	images := artwork(d.BackdropPath, d.Images.Backdrops)
	if len(images) == 0 {
		return nil, notFound(req, "fanart")
	}
	return images, nil
}

func (b *Backend) ScrapePoster(ctx context.Context, req provider.FieldRequest) ([]media.Image, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	images := artwork(d.PosterPath, d.Images.Posters)
	if len(images) == 0 {
		return nil, notFound(req, "poster")
	}
	return images, nil
}

func (b *Backend) ScrapeGenre(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	return namesOr(d.Genres, req, "genres")
}

func (b *Backend) ScrapeLanguage(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, l := range d.SpokenLanguages {
		name := l.EnglishName
		if name == "" {
			name = l.Name
		}
		if name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, notFound(req, "spoken languages")
	}
	return out, nil
}

func (b *Backend) ScrapeOutline(ctx context.Context, req provider.FieldRequest) (string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return "", err
	}
	if outline := firstSentence(d.Overview); outline != "" {
		return outline, nil
	}
	return "", notFound(req, "outline")
}

func (b *Backend) ScrapePlot(ctx context.Context, req provider.FieldRequest) (string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return "", err
	}
	if plot := strings.TrimSpace(d.Overview); plot != "" {
		return plot, nil
	}
	return "", notFound(req, "plot")
}

func (b *Backend) ScrapeRating(ctx context.Context, req provider.FieldRequest) (float64, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return 0, err
	}
	if d.VoteCount == 0 {
		return 0, notFound(req, "rating")
	}
	return d.VoteAverage, nil
}

func (b *Backend) ScrapeVotes(ctx context.Context, req provider.FieldRequest) (int, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return 0, err
	}
	if d.VoteCount == 0 {
		return 0, notFound(req, "votes")
	}
	return d.VoteCount, nil
}

func (b *Backend) ScrapeReleaseDate(ctx context.Context, req provider.FieldRequest) (time.Time, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return time.Time{}, err
	}
	released, err := time.Parse(time.DateOnly, d.ReleaseDate)
	if err != nil {
		return time.Time{}, notFound(req, "release date")
	}
	return released, nil
}

func (b *Backend) ScrapeRuntime(ctx context.Context, req provider.FieldRequest) (int, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return 0, err
	}
	if d.Runtime <= 0 {
		return 0, notFound(req, "runtime")
	}
	return d.Runtime, nil
}

func (b *Backend) ScrapeStudio(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}
	return namesOr(d.ProductionCompanies, req, "studios")
}

func (b *Backend) ScrapeTagline(ctx context.Context, req provider.FieldRequest) (string, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return "", err
	}
	if tagline := strings.TrimSpace(d.Tagline); tagline != "" {
		return tagline, nil
	}
	return "", notFound(req, "tagline")
}

// ScrapeTrailer returns trailers before teasers and clips, keeping the
// order TMDB reports within each group.
func (b *Backend) ScrapeTrailer(ctx context.Context, req provider.FieldRequest) ([]media.Trailer, error) {
	d, err := b.details(ctx, req.ID, req.Region)
	if err != nil {
		return nil, err
	}

	videos := make([]video, 0, len(d.Videos.Results))
	for _, v := range d.Videos.Results {
		if videoURL(v) != "" {
			videos = append(videos, v)
		}
	}
	sort.SliceStable(videos, func(i, j int) bool { return videoRank(videos[i]) < videoRank(videos[j]) })

	trailers := make([]media.Trailer, 0, len(videos))
	for _, v := range videos {
		trailers = append(trailers, media.Trailer{
			URL:     videoURL(v),
			Title:   v.Name,
			Site:    v.Site,
			Quality: quality(v.Size),
		})
	}
	if len(trailers) == 0 {
		return nil, notFound(req, "trailers")
	}
	return trailers, nil
}

func namesOr(items []named, req provider.FieldRequest, what string) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item.Name); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, notFound(req, what)
	}
	return out, nil
}

func crew(d *movieDetails, keep func(crewMember) bool) []media.Person {
	seen := make(map[string]bool)
	var people []media.Person
	for _, c := range d.Credits.Crew {
		if !keep(c) || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		people = append(people, media.Person{Name: c.Name, Role: c.Job, Thumb: thumbURL(c.ProfilePath)})
	}
	return people
}

// artwork lists the primary image first followed by every other candidate.
func artwork(primary string, files []imageFile) []media.Image {
	images := make([]media.Image, 0, len(files)+1)
	seen := make(map[string]bool)
	if primary != "" {
		images = append(images, media.Image{URL: imageBaseURL + primary, ThumbURL: thumbBaseURL + primary})
		seen[primary] = true
	}
	for _, f := range files {
		if f.FilePath == "" || seen[f.FilePath] {
			if f.FilePath != "" && f.FilePath == primary {
				images[0].Width, images[0].Height, images[0].Language = f.Width, f.Height, f.Language
			}
			continue
		}
		seen[f.FilePath] = true
		images = append(images, media.Image{
			URL:      imageBaseURL + f.FilePath,
			ThumbURL: thumbBaseURL + f.FilePath,
			Width:    f.Width,
			Height:   f.Height,
			Language: f.Language,
		})
	}
	return images
}

func thumbURL(path string) string {
	if path == "" {
		return ""
	}
	return thumbBaseURL + path
}

func videoURL(v video) string {
	if v.Key == "" {
		return ""
	}
	switch strings.ToLower(v.Site) {
	case "youtube":
		return "https://www.youtube.com/watch?v=" + v.Key
	case "vimeo":
		return "https://vimeo.com/" + v.Key
	default:
		return ""
	}
}

func videoRank(v video) int {
	switch v.Type {
	case "Trailer":
		return 0
	case "Teaser":
		return 1
	default:
		return 2
	}
}

func quality(size int) string {
	if size <= 0 {
		return ""
	}
	return strconv.Itoa(size) + "p"
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, ". "); i >= 0 {
		return text[:i+1]
	}
	return text
}
