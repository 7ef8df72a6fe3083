package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/mhmtszr/concurrent-swiss-map"
)

const defaultBatchWorkers = 4

// Job is one movie queued for a batch scrape. The batch owns Movie once the
// job is submitted.
type Job struct {
	Key   string
	Movie *media.Movie
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job    Job
	Report *Report
	Err    error
}

// BatchSummary captures the state of a batch at a point in time.
type BatchSummary struct {
	TotalJobs     int
	ProcessedJobs int
	FailedJobs    int
	ActiveWorkers int
	WorkerLimit   int
	LastItem      string
	Done          bool
	Canceled      bool
}

// BatchEvent is a progress update emitted by Batch.Start.
type BatchEvent struct {
	Summary BatchSummary
	Err     error
}

// BatchConfig configures a Batch.
type BatchConfig struct {
	Scraper *Scraper
	Jobs    []Job

	// DefaultGroup is used for movies that do not name a scraper group.
	DefaultGroup string

	Workers int
	Logger  *slog.Logger
}

// Batch scrapes many movies concurrently with a bounded worker pool. Jobs
// share only the scraper's read-only registry and group source.
type Batch struct {
	scraper      *Scraper
	jobs         []Job
	defaultGroup string
	workerCount  int
	logger       *slog.Logger

	results *csmap.CsMap[string, *JobResult]

	summaryMu sync.RWMutex
	summary   BatchSummary

	errorsMu sync.Mutex
	errors   []error
}

// NewBatch constructs a batch with defaults applied.
func NewBatch(cfg BatchConfig) *Batch {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	return &Batch{
		scraper:      cfg.Scraper,
		jobs:         cfg.Jobs,
		defaultGroup: cfg.DefaultGroup,
		workerCount:  workers,
		logger:       log.Or(cfg.Logger),
		results:      csmap.Create[string, *JobResult](),
		summary: BatchSummary{
			TotalJobs:   len(cfg.Jobs),
			WorkerLimit: workers,
		},
	}
}

// Start runs the batch and returns a stream of progress events. The channel
// closes when the batch finishes or ctx ends.
func (b *Batch) Start(ctx context.Context) <-chan BatchEvent {
	events := make(chan BatchEvent, 128)
	go b.run(ctx, events)
	return events
}

// Results returns the collected job results keyed by job key. Safe to read
// once the event channel has closed.
func (b *Batch) Results() map[string]*JobResult {
	out := make(map[string]*JobResult, b.results.Count())
	b.results.Range(func(key string, value *JobResult) bool {
		out[key] = value
		return false
	})
	return out
}

// Errors returns a copy of the job-level errors, excluding cancellation.
func (b *Batch) Errors() []error {
	b.errorsMu.Lock()
	defer b.errorsMu.Unlock()
	if len(b.errors) == 0 {
		return nil
	}
	cloned := make([]error, len(b.errors))
	copy(cloned, b.errors)
	return cloned
}

// SummarySnapshot returns the latest progress summary.
func (b *Batch) SummarySnapshot() BatchSummary {
	b.summaryMu.RLock()
	defer b.summaryMu.RUnlock()
	return b.summary
}

func (b *Batch) run(ctx context.Context, events chan<- BatchEvent) {
	defer close(events)

	if b.scraper == nil || len(b.jobs) == 0 {
		b.summaryMu.Lock()
		b.summary.Done = true
		b.summaryMu.Unlock()
		b.emitFinal(events, nil)
		return
	}

	b.emit(ctx, events, nil)

	workerCount := min(b.workerCount, len(b.jobs))
	workCh := make(chan Job)
	resultCh := make(chan *JobResult)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go b.worker(ctx, &wg, workCh, resultCh)
	}

	b.summaryMu.Lock()
	b.summary.ActiveWorkers = workerCount
	b.summaryMu.Unlock()
	b.emit(ctx, events, nil)

	go func() {
		defer close(workCh)
		for _, job := range b.jobs {
			select {
			case workCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for {
		select {
		case <-ctx.Done():
			b.summaryMu.Lock()
			b.summary.Canceled = true
			b.summary.ActiveWorkers = 0
			b.summaryMu.Unlock()
			b.logger.Warn("batch canceled", log.FieldError, ctx.Err())
			b.emitFinal(events, ctx.Err())
			return
		case res, ok := <-resultCh:
			if !ok {
				err := ctx.Err()
				b.summaryMu.Lock()
				b.summary.ActiveWorkers = 0
				b.summary.Canceled = err != nil
				b.summary.Done = err == nil
				b.summaryMu.Unlock()
				b.emitFinal(events, err)
				return
			}
			b.processResult(res)
			b.emit(ctx, events, nil)
		}
	}
}

func (b *Batch) worker(ctx context.Context, wg *sync.WaitGroup, workCh <-chan Job, resultCh chan<- *JobResult) {
	defer wg.Done()

	for job := range workCh {
		if ctx.Err() != nil {
			return
		}

		res := &JobResult{Job: job}
		res.Report, res.Err = b.scrape(ctx, job)

		select {
		case resultCh <- res:
		case <-ctx.Done():
			return
		}
	}
}

func (b *Batch) scrape(ctx context.Context, job Job) (*Report, error) {
	if job.Movie == nil {
		return nil, fmt.Errorf("job %s: nil movie", job.Key)
	}
	if job.Movie.ScraperGroup == "" {
		job.Movie.ScraperGroup = b.defaultGroup
	}
	return b.scraper.RunNamed(ctx, job.Movie)
}

func (b *Batch) processResult(res *JobResult) {
	b.results.Store(res.Job.Key, res)

	failed := res.Err != nil || res.Report == nil || !res.Report.Success
	if res.Err != nil && !errors.Is(res.Err, context.Canceled) && !errors.Is(res.Err, context.DeadlineExceeded) {
		b.errorsMu.Lock()
		b.errors = append(b.errors, fmt.Errorf("%s: %w", res.Job.Key, res.Err))
		b.errorsMu.Unlock()
	}

	label := res.Job.Key
	if res.Job.Movie != nil {
		label = res.Job.Movie.Label()
	}

	b.summaryMu.Lock()
	b.summary.ProcessedJobs++
	if failed {
		b.summary.FailedJobs++
	}
	b.summary.LastItem = label
	b.summaryMu.Unlock()
}

func (b *Batch) emit(ctx context.Context, events chan<- BatchEvent, err error) {
	summary := b.SummarySnapshot()
	select {
	case events <- BatchEvent{Summary: summary, Err: err}:
	case <-ctx.Done():
	}
}

// emitFinal sends the terminal event without waiting on ctx, which may
// already be done. The buffer only fills when nobody is reading.
func (b *Batch) emitFinal(events chan<- BatchEvent, err error) {
	select {
	case events <- BatchEvent{Summary: b.SummarySnapshot(), Err: err}:
	default:
		b.logger.Debug("final batch event dropped, consumer not reading")
	}
}
