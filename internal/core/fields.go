package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
)

// applyFunc writes a scraped value onto the movie.
type applyFunc func(*media.Movie)

// fieldOp pairs a backend capability with the step that applies its result.
type fieldOp struct {
	scrape func(ctx context.Context, b provider.Backend, req provider.FieldRequest) (applyFunc, error)
}

// op builds a fieldOp from a capability method expression and an apply step.
func op[S any, T any](method func(S, context.Context, provider.FieldRequest) (T, error), apply func(*media.Movie, T)) fieldOp {
	return fieldOp{
		scrape: func(ctx context.Context, b provider.Backend, req provider.FieldRequest) (applyFunc, error) {
			s, ok := b.(S)
			if !ok {
				return nil, ErrCapabilityMissing
			}
			v, err := method(s, ctx, req)
			if err != nil {
				return nil, err
			}
			return func(m *media.Movie) { apply(m, v) }, nil
		},
	}
}

// fieldTable maps every field to its capability and apply step. Scalars
// overwrite, lists replace wholesale, artwork keeps every candidate.
var fieldTable = map[provider.Field]fieldOp{
	provider.FieldTitle: op(provider.TitleScraper.ScrapeTitle, func(m *media.Movie, v provider.TitleResult) {
		m.Title = v.Title
		m.AlternateTitles = slices.Clone(v.Alternates)
	}),
	provider.FieldOriginalTitle: op(provider.OriginalTitleScraper.ScrapeOriginalTitle, func(m *media.Movie, v string) {
		m.OriginalTitle = v
	}),
	provider.FieldYear: op(provider.YearScraper.ScrapeYear, func(m *media.Movie, v int) {
		m.Year = v
	}),
	provider.FieldTop250: op(provider.Top250Scraper.ScrapeTop250, func(m *media.Movie, v int) {
		m.Top250 = v
	}),
	provider.FieldCast: op(provider.CastScraper.ScrapeCast, func(m *media.Movie, v []media.Person) {
		m.Cast = slices.Clone(v)
	}),
	provider.FieldCertification: op(provider.CertificationScraper.ScrapeCertification, func(m *media.Movie, v string) {
		m.Certification = v
	}),
	provider.FieldMpaa: op(provider.MpaaScraper.ScrapeMpaa, func(m *media.Movie, v string) {
		m.Mpaa = v
	}),
	provider.FieldCountry: op(provider.CountryScraper.ScrapeCountry, func(m *media.Movie, v []string) {
		m.Country = slices.Clone(v)
	}),
	provider.FieldDirector: op(provider.DirectorScraper.ScrapeDirector, func(m *media.Movie, v []media.Person) {
		m.Director = slices.Clone(v)
	}),
	provider.FieldFanart: op(provider.FanartScraper.ScrapeFanart, func(m *media.Movie, v []media.Image) {
		m.AlternativeFanart = slices.Clone(v)
		if len(v) > 0 {
			m.CurrentFanartURL = v[0].URL
		}
	}),
	provider.FieldGenre: op(provider.GenreScraper.ScrapeGenre, func(m *media.Movie, v []string) {
		m.Genre = slices.Clone(v)
	}),
	provider.FieldLanguage: op(provider.LanguageScraper.ScrapeLanguage, func(m *media.Movie, v []string) {
		m.Language = slices.Clone(v)
	}),
	provider.FieldOutline: op(provider.OutlineScraper.ScrapeOutline, func(m *media.Movie, v string) {
		m.Outline = v
	}),
	provider.FieldPlot: op(provider.PlotScraper.ScrapePlot, func(m *media.Movie, v string) {
		m.Plot = v
	}),
	provider.FieldRating: op(provider.RatingScraper.ScrapeRating, func(m *media.Movie, v float64) {
		m.Rating = v
	}),
	provider.FieldReleaseDate: op(provider.ReleaseDateScraper.ScrapeReleaseDate, func(m *media.Movie, v time.Time) {
		m.ReleaseDate = v
	}),
	provider.FieldRuntime: op(provider.RuntimeScraper.ScrapeRuntime, func(m *media.Movie, v int) {
		m.Runtime = v
	}),
	provider.FieldStudio: op(provider.StudioScraper.ScrapeStudio, func(m *media.Movie, v []string) {
		m.Studio = slices.Clone(v)
	}),
	provider.FieldTagline: op(provider.TaglineScraper.ScrapeTagline, func(m *media.Movie, v string) {
		m.Tagline = v
	}),
	provider.FieldVotes: op(provider.VotesScraper.ScrapeVotes, func(m *media.Movie, v int) {
		m.Votes = v
	}),
	provider.FieldWriters: op(provider.WritersScraper.ScrapeWriters, func(m *media.Movie, v []media.Person) {
		m.Writers = slices.Clone(v)
	}),
	provider.FieldPoster: op(provider.PosterScraper.ScrapePoster, func(m *media.Movie, v []media.Image) {
		m.AlternativePosters = slices.Clone(v)
		if len(v) > 0 {
			m.CurrentPosterURL = v[0].URL
		}
	}),
	provider.FieldTrailer: op(provider.TrailerScraper.ScrapeTrailer, func(m *media.Movie, v []media.Trailer) {
		m.AlternativeTrailers = slices.Clone(v)
	}),
}

func lookupOp(f provider.Field) (fieldOp, error) {
	fo, ok := fieldTable[f]
	if !ok {
		return fieldOp{}, fmt.Errorf("no dispatch entry for field %s", f)
	}
	return fo, nil
}
