package core

import (
	"context"
	"sync"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
)

// fakeBackend implements every capability and records how it was used.
type fakeBackend struct {
	desc       provider.Descriptor
	candidates []provider.Candidate
	searchErr  error
	fail       map[provider.Field]error
	panicOn    map[provider.Field]bool
	posters    []media.Image
	fanart     []media.Image
	trailers   []media.Trailer
	onScrape   func(provider.Field)

	mu       sync.Mutex
	searches []provider.Query
	calls    []provider.Field
	ids      []string
}

func newFake(name string, kind provider.IDKind, fields ...provider.Field) *fakeBackend {
	if len(fields) == 0 {
		fields = provider.Fields()
	}
	return &fakeBackend{
		desc:     provider.Descriptor{Name: name, IDKind: kind, Fields: fields},
		fanart:   []media.Image{{URL: "https://img.example/fanart.jpg"}},
		trailers: []media.Trailer{{URL: "https://video.example/trailer", Site: "YouTube"}},
	}
}

func (f *fakeBackend) Descriptor() provider.Descriptor { return f.desc }

func (f *fakeBackend) Search(_ context.Context, q provider.Query) ([]provider.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}

func (f *fakeBackend) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func (f *fakeBackend) callLog() ([]provider.Field, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.Field(nil), f.calls...), append([]string(nil), f.ids...)
}

func (f *fakeBackend) record(field provider.Field, req provider.FieldRequest) error {
	f.mu.Lock()
	f.calls = append(f.calls, field)
	f.ids = append(f.ids, req.ID)
	hook := f.onScrape
	f.mu.Unlock()

	if hook != nil {
		hook(field)
	}
	if f.panicOn[field] {
		panic("fake backend exploded")
	}
	if err := f.fail[field]; err != nil {
		return err
	}
	return nil
}

func (f *fakeBackend) ScrapeTitle(_ context.Context, req provider.FieldRequest) (provider.TitleResult, error) {
	if err := f.record(provider.FieldTitle, req); err != nil {
		return provider.TitleResult{}, err
	}
	return provider.TitleResult{Title: "The Dark Knight", Alternates: []string{"Batman: The Dark Knight"}}, nil
}

func (f *fakeBackend) ScrapeOriginalTitle(_ context.Context, req provider.FieldRequest) (string, error) {
	return "The Dark Knight", f.record(provider.FieldOriginalTitle, req)
}

func (f *fakeBackend) ScrapeYear(_ context.Context, req provider.FieldRequest) (int, error) {
	return 2008, f.record(provider.FieldYear, req)
}

func (f *fakeBackend) ScrapeTop250(_ context.Context, req provider.FieldRequest) (int, error) {
	return 3, f.record(provider.FieldTop250, req)
}

func (f *fakeBackend) ScrapeCast(_ context.Context, req provider.FieldRequest) ([]media.Person, error) {
	return []media.Person{{Name: "Christian Bale", Role: "Bruce Wayne"}}, f.record(provider.FieldCast, req)
}

func (f *fakeBackend) ScrapeCertification(_ context.Context, req provider.FieldRequest) (string, error) {
	return "USA:PG-13", f.record(provider.FieldCertification, req)
}

func (f *fakeBackend) ScrapeMpaa(_ context.Context, req provider.FieldRequest) (string, error) {
	return "Rated PG-13", f.record(provider.FieldMpaa, req)
}

func (f *fakeBackend) ScrapeCountry(_ context.Context, req provider.FieldRequest) ([]string, error) {
	return []string{"United States", "United Kingdom"}, f.record(provider.FieldCountry, req)
}

func (f *fakeBackend) ScrapeDirector(_ context.Context, req provider.FieldRequest) ([]media.Person, error) {
	return []media.Person{{Name: "Christopher Nolan"}}, f.record(provider.FieldDirector, req)
}

func (f *fakeBackend) ScrapeFanart(_ context.Context, req provider.FieldRequest) ([]media.Image, error) {
	return f.fanart, f.record(provider.FieldFanart, req)
}

func (f *fakeBackend) ScrapeGenre(_ context.Context, req provider.FieldRequest) ([]string, error) {
	return []string{"Action", "Crime"}, f.record(provider.FieldGenre, req)
}

func (f *fakeBackend) ScrapeLanguage(_ context.Context, req provider.FieldRequest) ([]string, error) {
	return []string{"English"}, f.record(provider.FieldLanguage, req)
}

func (f *fakeBackend) ScrapeOutline(_ context.Context, req provider.FieldRequest) (string, error) {
	return "Batman faces the Joker.", f.record(provider.FieldOutline, req)
}

func (f *fakeBackend) ScrapePlot(_ context.Context, req provider.FieldRequest) (string, error) {
	return "Batman raises the stakes in his war on crime.", f.record(provider.FieldPlot, req)
}

func (f *fakeBackend) ScrapeRating(_ context.Context, req provider.FieldRequest) (float64, error) {
	return 9.0, f.record(provider.FieldRating, req)
}

func (f *fakeBackend) ScrapeReleaseDate(_ context.Context, req provider.FieldRequest) (time.Time, error) {
	return time.Date(2008, 7, 18, 0, 0, 0, 0, time.UTC), f.record(provider.FieldReleaseDate, req)
}

func (f *fakeBackend) ScrapeRuntime(_ context.Context, req provider.FieldRequest) (int, error) {
	return 152, f.record(provider.FieldRuntime, req)
}

func (f *fakeBackend) ScrapeStudio(_ context.Context, req provider.FieldRequest) ([]string, error) {
	return []string{"Warner Bros."}, f.record(provider.FieldStudio, req)
}

func (f *fakeBackend) ScrapeTagline(_ context.Context, req provider.FieldRequest) (string, error) {
	return "Why so serious?", f.record(provider.FieldTagline, req)
}

func (f *fakeBackend) ScrapeVotes(_ context.Context, req provider.FieldRequest) (int, error) {
	return 2900000, f.record(provider.FieldVotes, req)
}

func (f *fakeBackend) ScrapeWriters(_ context.Context, req provider.FieldRequest) ([]media.Person, error) {
	return []media.Person{{Name: "Jonathan Nolan"}}, f.record(provider.FieldWriters, req)
}

func (f *fakeBackend) ScrapePoster(_ context.Context, req provider.FieldRequest) ([]media.Image, error) {
	return f.posters, f.record(provider.FieldPoster, req)
}

func (f *fakeBackend) ScrapeTrailer(_ context.Context, req provider.FieldRequest) ([]media.Trailer, error) {
	return f.trailers, f.record(provider.FieldTrailer, req)
}

// searchOnlyBackend implements no field capability.
type searchOnlyBackend struct {
	desc provider.Descriptor
}

func (s searchOnlyBackend) Descriptor() provider.Descriptor { return s.desc }

func (s searchOnlyBackend) Search(context.Context, provider.Query) ([]provider.Candidate, error) {
	return nil, nil
}

// mapFinder is a BackendFinder without registration checks.
type mapFinder map[string]provider.Backend

func (m mapFinder) FindByName(name string) (provider.Backend, error) {
	if b, ok := m[name]; ok {
		return b, nil
	}
	return nil, provider.ErrBackendNotFound
}
