package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Digital-Shane/movie-meta/internal/group"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
)

func drain(events <-chan BatchEvent) BatchEvent {
	var last BatchEvent
	for ev := range events {
		last = ev
	}
	return last
}

func TestBatchCollectsOneReportPerJob(t *testing.T) {
	imdb := newFake("Imdb", provider.IDKindImdb)
	store, err := group.NewStore(mustGroup(t, "Quick", map[provider.Field]string{
		provider.FieldYear:  "Imdb",
		provider.FieldGenre: "Imdb",
	}))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	scraper := NewScraper(mustRegistry(t, imdb), Options{Groups: store})

	var jobs []Job
	for i := 0; i < 10; i++ {
		jobs = append(jobs, Job{
			Key:   fmt.Sprintf("movie-%d", i),
			Movie: &media.Movie{Title: fmt.Sprintf("Movie %d", i), ImdbID: fmt.Sprintf("tt%07d", i+1)},
		})
	}

	batch := NewBatch(BatchConfig{Scraper: scraper, Jobs: jobs, DefaultGroup: "Quick", Workers: 3})
	last := drain(batch.Start(context.Background()))

	if !last.Summary.Done || last.Summary.Canceled {
		t.Errorf("final summary = %+v, want done", last.Summary)
	}
	if last.Summary.ProcessedJobs != len(jobs) || last.Summary.FailedJobs != 0 {
		t.Errorf("processed=%d failed=%d, want %d and 0", last.Summary.ProcessedJobs, last.Summary.FailedJobs, len(jobs))
	}

	results := batch.Results()
	if len(results) != len(jobs) {
		t.Fatalf("Results() has %d entries, want %d", len(results), len(jobs))
	}
	for _, job := range jobs {
		res := results[job.Key]
		if res == nil || res.Err != nil || res.Report == nil || !res.Report.Success {
			t.Errorf("result %s = %+v, want successful report", job.Key, res)
			continue
		}
		if job.Movie.Year != 2008 {
			t.Errorf("%s year = %d, want 2008", job.Key, job.Movie.Year)
		}
	}
	if n := imdb.searchCount(); n != 0 {
		t.Errorf("searches = %d, want 0 with stored ids", n)
	}
}

func TestBatchRecordsConfigurationErrors(t *testing.T) {
	imdb := newFake("Imdb", provider.IDKindImdb)
	store, err := group.NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	scraper := NewScraper(mustRegistry(t, imdb), Options{Groups: store})

	jobs := []Job{
		{Key: "unknown", Movie: &media.Movie{Title: "Heat", ScraperGroup: "Missing"}},
		{Key: "nil", Movie: nil},
	}
	batch := NewBatch(BatchConfig{Scraper: scraper, Jobs: jobs, Workers: 2})
	last := drain(batch.Start(context.Background()))

	if last.Summary.FailedJobs != 2 {
		t.Errorf("FailedJobs = %d, want 2", last.Summary.FailedJobs)
	}
	if got := batch.Errors(); len(got) != 2 {
		t.Errorf("Errors() = %v, want 2 entries", got)
	}
	if res := batch.Results()["unknown"]; res == nil || !errors.Is(res.Err, ErrUnknownScraperGroup) {
		t.Errorf("unknown result = %+v, want ErrUnknownScraperGroup", res)
	}
}

func TestBatchWithoutJobsFinishesImmediately(t *testing.T) {
	batch := NewBatch(BatchConfig{Scraper: NewScraper(mapFinder{}, Options{})})
	last := drain(batch.Start(context.Background()))
	if !last.Summary.Done {
		t.Errorf("summary = %+v, want done", last.Summary)
	}
	if len(batch.Results()) != 0 {
		t.Errorf("Results() = %v, want empty", batch.Results())
	}
}

func TestBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imdb := newFake("Imdb", provider.IDKindImdb)
	scraper := NewScraper(mustRegistry(t, imdb), Options{})
	batch := NewBatch(BatchConfig{
		Scraper: scraper,
		Jobs:    []Job{{Key: "a", Movie: &media.Movie{Title: "A"}}},
	})

	for range batch.Start(ctx) {
	}
	snap := batch.SummarySnapshot()
	if snap.Done || !snap.Canceled {
		t.Errorf("summary = %+v, want canceled", snap)
	}
}

func TestBatchCanceledAlwaysSendsFinalEvent(t *testing.T) {
	imdb := newFake("Imdb", provider.IDKindImdb)
	scraper := NewScraper(mustRegistry(t, imdb), Options{})

	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		batch := NewBatch(BatchConfig{
			Scraper: scraper,
			Jobs:    []Job{{Key: "a", Movie: &media.Movie{Title: "A"}}},
		})
		last := drain(batch.Start(ctx))
		if !last.Summary.Canceled || !errors.Is(last.Err, context.Canceled) {
			t.Fatalf("run %d final event = %+v, want canceled summary and context.Canceled", i, last)
		}
	}
}
