package imdb

import (
	"context"
	"strings"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
)

func notFound(req provider.FieldRequest, what string) error {
	return provider.NotFound(Name, "no %s for %s", what, req.ID)
}

func (b *Backend) ScrapeTitle(ctx context.Context, req provider.FieldRequest) (provider.TitleResult, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return provider.TitleResult{}, err
	}
	return provider.TitleResult{Title: page.Title, Alternates: page.Alternates}, nil
}

func (b *Backend) ScrapeOriginalTitle(ctx context.Context, req provider.FieldRequest) (string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return "", err
	}
	if page.OriginalTitle == "" {
		return "", notFound(req, "original title")
	}
	return page.OriginalTitle, nil
}

func (b *Backend) ScrapeYear(ctx context.Context, req provider.FieldRequest) (int, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return 0, err
	}
	if page.Year <= 0 {
		return 0, notFound(req, "year")
	}
	return page.Year, nil
}

// ScrapeTop250 returns the movie's position in the IMDb Top 250 chart, or 0
// when the movie is not on it.
func (b *Backend) ScrapeTop250(ctx context.Context, req provider.FieldRequest) (int, error) {
	id := titleIDPattern.FindString(req.ID)
	if id == "" {
		return 0, provider.InvalidRequest(Name, "invalid IMDb id %q", req.ID)
	}
	ranks, err := b.chart(ctx)
	if err != nil {
		return 0, err
	}
	return ranks[id], nil
}

func (b *Backend) ScrapeCast(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(page.Cast) == 0 {
		return nil, notFound(req, "cast")
	}
	return page.Cast, nil
}

// ScrapeCertification returns the US content rating in "Country:Rating" form.
func (b *Backend) ScrapeCertification(ctx context.Context, req provider.FieldRequest) (string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return "", err
	}
	if page.ContentRating == "" {
		return "", notFound(req, "certification")
	}
	return "USA:" + page.ContentRating, nil
}

func (b *Backend) ScrapeMpaa(ctx context.Context, req provider.FieldRequest) (string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(page.ContentRating) {
	case "", "not rated", "unrated":
		return "", notFound(req, "MPAA rating")
	}
	return "Rated " + page.ContentRating, nil
}

func (b *Backend) ScrapeCountry(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(page.Countries) == 0 {
		return nil, notFound(req, "country")
	}
	return page.Countries, nil
}

func (b *Backend) ScrapeDirector(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(page.Directors) == 0 {
		return nil, notFound(req, "director")
	}
	return page.Directors, nil
}

func (b *Backend) ScrapeGenre(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(page.Genres) == 0 {
		return nil, notFound(req, "genre")
	}
	return page.Genres, nil
}

func (b *Backend) ScrapeLanguage(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(page.Languages) == 0 {
		return nil, notFound(req, "language")
	}
	return page.Languages, nil
}

func (b *Backend) ScrapePlot(ctx context.Context, req provider.FieldRequest) (string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return "", err
	}
	if page.Plot == "" {
		return "", notFound(req, "plot")
	}
	return page.Plot, nil
}

func (b *Backend) ScrapeRating(ctx context.Context, req provider.FieldRequest) (float64, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return 0, err
	}
	if page.Rating <= 0 {
		return 0, notFound(req, "rating")
	}
	return page.Rating, nil
}

func (b *Backend) ScrapeReleaseDate(ctx context.Context, req provider.FieldRequest) (time.Time, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return time.Time{}, err
	}
	if page.Released.IsZero() {
		return time.Time{}, notFound(req, "release date")
	}
	return page.Released, nil
}

func (b *Backend) ScrapeRuntime(ctx context.Context, req provider.FieldRequest) (int, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return 0, err
	}
	if page.Runtime <= 0 {
		return 0, notFound(req, "runtime")
	}
	return page.Runtime, nil
}

func (b *Backend) ScrapeStudio(ctx context.Context, req provider.FieldRequest) ([]string, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(page.Studios) == 0 {
		return nil, notFound(req, "studio")
	}
	return page.Studios, nil
}

func (b *Backend) ScrapeVotes(ctx context.Context, req provider.FieldRequest) (int, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return 0, err
	}
	if page.Votes <= 0 {
		return 0, notFound(req, "votes")
	}
	return page.Votes, nil
}

func (b *Backend) ScrapeWriters(ctx context.Context, req provider.FieldRequest) ([]media.Person, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(page.Writers) == 0 {
		return nil, notFound(req, "writers")
	}
	return page.Writers, nil
}

func (b *Backend) ScrapePoster(ctx context.Context, req provider.FieldRequest) ([]media.Image, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if page.Poster == "" {
		return nil, notFound(req, "poster")
	}
	return []media.Image{{URL: page.Poster, ThumbURL: page.Poster}}, nil
}

func (b *Backend) ScrapeTrailer(ctx context.Context, req provider.FieldRequest) ([]media.Trailer, error) {
	page, err := b.details(ctx, req)
	if err != nil {
		return nil, err
	}
	if page.Trailer == nil {
		return nil, notFound(req, "trailer")
	}
	return []media.Trailer{*page.Trailer}, nil
}
