package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Digital-Shane/movie-meta/internal/group"
	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/google/uuid"
)

// Options configures a Scraper.
type Options struct {
	// Groups resolves Movie.ScraperGroup for RunNamed.
	Groups group.Source

	// Region selects the language/locale variant passed to backends.
	Region int

	// FieldTimeout bounds each backend call; zero means no extra bound.
	FieldTimeout time.Duration

	Logger *slog.Logger
}

// Scraper dispatches every field of a movie to the backend its scraper group
// assigns. It holds only read-only state and may be shared by concurrent runs.
type Scraper struct {
	backends     BackendFinder
	groups       group.Source
	region       int
	fieldTimeout time.Duration
	logger       *slog.Logger
}

// NewScraper creates a scraper over backends.
func NewScraper(backends BackendFinder, opts Options) *Scraper {
	return &Scraper{
		backends:     backends,
		groups:       opts.Groups,
		region:       opts.Region,
		fieldTimeout: opts.FieldTimeout,
		logger:       log.Or(opts.Logger),
	}
}

// RunScrape scrapes movie with grp and reports whether every attempted field
// succeeded. The error is non-nil only for configuration problems or when
// ctx ends before the run completes.
func (s *Scraper) RunScrape(ctx context.Context, movie *media.Movie, grp *group.Group) (bool, error) {
	report, err := s.Run(ctx, movie, grp)
	if err != nil {
		return false, err
	}
	return report.Success, report.Err
}

// RunNamed scrapes movie with the group named by movie.ScraperGroup.
func (s *Scraper) RunNamed(ctx context.Context, movie *media.Movie) (*Report, error) {
	if movie == nil {
		return nil, fmt.Errorf("scrape: nil movie")
	}
	if movie.ScraperGroup == "" {
		return nil, ErrNoScraperGroup
	}
	if s.groups == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScraperGroup, movie.ScraperGroup)
	}
	grp, ok := s.groups.Group(movie.ScraperGroup)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScraperGroup, movie.ScraperGroup)
	}
	return s.Run(ctx, movie, grp)
}

// Run scrapes every field in canonical order and returns the per-field
// report. Individual field failures never stop the run; a done context stops
// it between fields, leaving the remaining fields not attempted.
func (s *Scraper) Run(ctx context.Context, movie *media.Movie, grp *group.Group) (*Report, error) {
	if grp == nil {
		return nil, ErrNoScraperGroup
	}
	if movie == nil {
		return nil, fmt.Errorf("scrape: nil movie")
	}

	runID := uuid.NewString()
	logger := s.logger.With(log.FieldRunID, runID, log.FieldGroup, grp.Name(), log.FieldMovie, movie.Label())
	report := newReport(runID, grp.Name(), movie.Label())
	resolver := NewResolver(movie, s.backends, logger)

	logger.Info("scrape started")
	start := time.Now()

	for i, f := range provider.Fields() {
		if err := ctx.Err(); err != nil {
			report.Err = err
			logger.Warn("scrape canceled", log.FieldField, f.String(), log.FieldError, err)
			break
		}
		report.Outcomes[i] = s.scrapeField(ctx, movie, grp.Lookup(f), f, resolver, logger)
	}

	report.finish()
	logger.Info("scrape finished",
		"success", report.Success,
		"applied", report.Count(StatusApplied),
		"failed", report.Count(StatusFailed),
		"skipped", report.Count(StatusSkipped),
		"elapsed", time.Since(start))
	return report, nil
}

func (s *Scraper) scrapeField(ctx context.Context, movie *media.Movie, assignment group.Assignment, f provider.Field, resolver *Resolver, logger *slog.Logger) (out Outcome) {
	out = Outcome{Field: f}
	name := assignment.BackendName()
	if name == "" {
		out.Status = StatusSkipped
		return out
	}
	out.Backend = name

	logContext := fmt.Sprintf("Scrape > %s > %s", f, name)
	start := time.Now()
	defer func() {
		out.Elapsed = time.Since(start)
		attrs := []any{log.FieldContext, logContext, log.FieldOutcome, out.Status.String()}
		if out.Err != nil {
			attrs = append(attrs, log.FieldError, out.Err)
			logger.Warn("field failed", attrs...)
			return
		}
		logger.Debug("field done", attrs...)
	}()

	fail := func(kind FailureKind, err error) Outcome {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			kind = FailureCanceled
		}
		out.Status = StatusFailed
		out.Failure = kind
		out.Err = err
		return out
	}

	backend, err := s.backends.FindByName(name)
	if err != nil {
		return fail(FailureBackendNotFound, err)
	}

	// Only declared fields are dispatched, and they are checked before any
	// identifier search is spent on them.
	if !backend.Descriptor().Supports(f) {
		return fail(FailureUnsupported, fmt.Errorf("%w: %s does not declare %s", ErrCapabilityMissing, name, f))
	}
	fo, err := lookupOp(f)
	if err != nil {
		return fail(FailureUnsupported, err)
	}

	id, err := resolver.Resolve(ctx, backend)
	if err != nil {
		return fail(FailureIdentifierUnresolvable, err)
	}

	apply, err := s.invoke(ctx, fo, backend, provider.FieldRequest{ID: id, Region: s.region, LogContext: logContext})
	if err != nil {
		if errors.Is(err, ErrCapabilityMissing) {
			return fail(FailureUnsupported, fmt.Errorf("%s: %w", name, err))
		}
		return fail(FailureScrape, err)
	}

	apply(movie)
	out.Status = StatusApplied
	return out
}

// invoke calls the backend under the optional per-field timeout. A panicking
// backend fails the field instead of the run.
func (s *Scraper) invoke(ctx context.Context, fo fieldOp, backend provider.Backend, req provider.FieldRequest) (apply applyFunc, err error) {
	if s.fieldTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fieldTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			apply = nil
			err = fmt.Errorf("backend %s panicked: %v", backend.Descriptor().Name, r)
		}
	}()

	return fo.scrape(ctx, backend, req)
}
