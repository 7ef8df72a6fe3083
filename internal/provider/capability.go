package provider

import (
	"context"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
)

// Per-field capability interfaces. A backend implements one for every field
// listed in its Descriptor.

type TitleScraper interface {
	ScrapeTitle(ctx context.Context, req FieldRequest) (TitleResult, error)
}

type OriginalTitleScraper interface {
	ScrapeOriginalTitle(ctx context.Context, req FieldRequest) (string, error)
}

type YearScraper interface {
	ScrapeYear(ctx context.Context, req FieldRequest) (int, error)
}

// Top250Scraper returns the IMDb Top 250 rank, 0 when unranked.
type Top250Scraper interface {
	ScrapeTop250(ctx context.Context, req FieldRequest) (int, error)
}

type CastScraper interface {
	ScrapeCast(ctx context.Context, req FieldRequest) ([]media.Person, error)
}

type CertificationScraper interface {
	ScrapeCertification(ctx context.Context, req FieldRequest) (string, error)
}

type MpaaScraper interface {
	ScrapeMpaa(ctx context.Context, req FieldRequest) (string, error)
}

type CountryScraper interface {
	ScrapeCountry(ctx context.Context, req FieldRequest) ([]string, error)
}

type DirectorScraper interface {
	ScrapeDirector(ctx context.Context, req FieldRequest) ([]media.Person, error)
}

type FanartScraper interface {
	ScrapeFanart(ctx context.Context, req FieldRequest) ([]media.Image, error)
}

type GenreScraper interface {
	ScrapeGenre(ctx context.Context, req FieldRequest) ([]string, error)
}

type LanguageScraper interface {
	ScrapeLanguage(ctx context.Context, req FieldRequest) ([]string, error)
}

type OutlineScraper interface {
	ScrapeOutline(ctx context.Context, req FieldRequest) (string, error)
}

type PlotScraper interface {
	ScrapePlot(ctx context.Context, req FieldRequest) (string, error)
}

type RatingScraper interface {
	ScrapeRating(ctx context.Context, req FieldRequest) (float64, error)
}

type ReleaseDateScraper interface {
	ScrapeReleaseDate(ctx context.Context, req FieldRequest) (time.Time, error)
}

// RuntimeScraper returns the running time in minutes.
type RuntimeScraper interface {
	ScrapeRuntime(ctx context.Context, req FieldRequest) (int, error)
}

type StudioScraper interface {
	ScrapeStudio(ctx context.Context, req FieldRequest) ([]string, error)
}

type TaglineScraper interface {
	ScrapeTagline(ctx context.Context, req FieldRequest) (string, error)
}

type VotesScraper interface {
	ScrapeVotes(ctx context.Context, req FieldRequest) (int, error)
}

type WritersScraper interface {
	ScrapeWriters(ctx context.Context, req FieldRequest) ([]media.Person, error)
}

type PosterScraper interface {
	ScrapePoster(ctx context.Context, req FieldRequest) ([]media.Image, error)
}

type TrailerScraper interface {
	ScrapeTrailer(ctx context.Context, req FieldRequest) ([]media.Trailer, error)
}

// Implements reports whether b carries the capability interface for f.
func Implements(b Backend, f Field) bool {
	var ok bool
	switch f {
	case FieldTitle:
		_, ok = b.(TitleScraper)
	case FieldOriginalTitle:
		_, ok = b.(OriginalTitleScraper)
	case FieldYear:
		_, ok = b.(YearScraper)
	case FieldTop250:
		_, ok = b.(Top250Scraper)
	case FieldCast:
		_, ok = b.(CastScraper)
	case FieldCertification:
		_, ok = b.(CertificationScraper)
	case FieldMpaa:
		_, ok = b.(MpaaScraper)
	case FieldCountry:
		_, ok = b.(CountryScraper)
	case FieldDirector:
		_, ok = b.(DirectorScraper)
	case FieldFanart:
		_, ok = b.(FanartScraper)
	case FieldGenre:
		_, ok = b.(GenreScraper)
	case FieldLanguage:
		_, ok = b.(LanguageScraper)
	case FieldOutline:
		_, ok = b.(OutlineScraper)
	case FieldPlot:
		_, ok = b.(PlotScraper)
	case FieldRating:
		_, ok = b.(RatingScraper)
	case FieldReleaseDate:
		_, ok = b.(ReleaseDateScraper)
	case FieldRuntime:
		_, ok = b.(RuntimeScraper)
	case FieldStudio:
		_, ok = b.(StudioScraper)
	case FieldTagline:
		_, ok = b.(TaglineScraper)
	case FieldVotes:
		_, ok = b.(VotesScraper)
	case FieldWriters:
		_, ok = b.(WritersScraper)
	case FieldPoster:
		_, ok = b.(PosterScraper)
	case FieldTrailer:
		_, ok = b.(TrailerScraper)
	}
	return ok
}
