package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Digital-Shane/movie-meta/internal/core"
	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/progress"
	"github.com/charmbracelet/bubbletea"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// batchEntry is one movie in a batch list file.
type batchEntry struct {
	Title  string `toml:"title" yaml:"title"`
	Year   int    `toml:"year" yaml:"year"`
	ImdbID string `toml:"imdb_id" yaml:"imdb_id"`
	TmdbID string `toml:"tmdb_id" yaml:"tmdb_id"`
	File   string `toml:"file" yaml:"file"`
	Group  string `toml:"group" yaml:"group"`
}

type batchFile struct {
	Movies []batchEntry `toml:"movies" yaml:"movies"`
}

// batchOptions are the flags of the batch command.
type batchOptions struct {
	Path       string
	Group      string
	Workers    int
	NoProgress bool
}

var batchOpts batchOptions

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Scrape every movie listed in a TOML or YAML file",
	Long: `Scrape a list of movies concurrently. The list file holds a "movies" array whose
entries accept title, year, imdb_id, tmdb_id, file and group. Entries without a group
use --group, or the configured default group.`,
	Example: `  movie-meta batch watchlist.toml --workers 8`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		opts := batchOpts
		opts.Path = args[0]
		return runBatch(ctx, currentGlobals(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOpts.Group, "group", "g", "", "Scraper group for entries that name none")
	batchCmd.Flags().IntVarP(&batchOpts.Workers, "workers", "w", 0, "Concurrent scrapes (default from config)")
	batchCmd.Flags().BoolVar(&batchOpts.NoProgress, "no-progress", false, "Disable the live progress view")
	rootCmd.AddCommand(batchCmd)
}

// loadBatchFile reads a movie list from a .toml, .yaml or .yml file.
func loadBatchFile(path string) ([]batchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read movie list: %w", err)
	}

	var list batchFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("parse movie list %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&list); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse movie list %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("movie list %s: unsupported file type", path)
	}

	if len(list.Movies) == 0 {
		return nil, fmt.Errorf("movie list %s is empty", path)
	}
	return list.Movies, nil
}

func (e batchEntry) movie() (*media.Movie, error) {
	opts := scrapeOptions{
		Title:  e.Title,
		Year:   e.Year,
		ImdbID: e.ImdbID,
		TmdbID: e.TmdbID,
		File:   e.File,
	}
	movie, err := opts.movie()
	if err != nil {
		return nil, err
	}
	movie.ScraperGroup = strings.TrimSpace(e.Group)
	return movie, nil
}

func runBatch(ctx context.Context, globals globalOptions, opts batchOptions, stdout, stderr io.Writer) error {
	entries, err := loadBatchFile(opts.Path)
	if err != nil {
		return err
	}

	movies := make([]*media.Movie, 0, len(entries))
	for i, entry := range entries {
		movie, err := entry.movie()
		if err != nil {
			return fmt.Errorf("movie list entry %d: %w", i+1, err)
		}
		movies = append(movies, movie)
	}

	e, err := loadEnv(globals, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.close()
	return e.runJobs(ctx, movies, opts, stdout)
}

// runJobs scrapes movies with a core.Batch and prints one summary row per
// movie in input order. On a terminal a live progress view runs meanwhile.
func (e *env) runJobs(ctx context.Context, movies []*media.Movie, opts batchOptions, stdout io.Writer) error {
	jobs := make([]core.Job, 0, len(movies))
	rows := make([]batchRow, 0, len(movies))
	for i, movie := range movies {
		jobs = append(jobs, core.Job{Key: strconv.Itoa(i + 1), Movie: movie})
		rows = append(rows, batchRow{Label: movie.Label()})
	}

	defaultGroup := e.cfg.Scrape.DefaultGroup
	if name := strings.TrimSpace(opts.Group); name != "" {
		defaultGroup = name
	}
	workers := e.cfg.Scrape.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	batch := core.NewBatch(core.BatchConfig{
		Scraper:      e.scraper(),
		Jobs:         jobs,
		DefaultGroup: defaultGroup,
		Workers:      workers,
		Logger:       e.logger,
	})

	if !opts.NoProgress && !e.theme.Plain() {
		model := progress.NewBatchModel(ctx, batch, e.theme)
		if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(stdout)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("progress view: %w", err)
		}
	} else {
		for ev := range batch.Start(ctx) {
			e.logger.Debug("batch progress",
				"processed", ev.Summary.ProcessedJobs,
				"total", ev.Summary.TotalJobs,
				"failed", ev.Summary.FailedJobs,
				log.FieldMovie, ev.Summary.LastItem)
			if ev.Err != nil {
				e.logger.Warn("batch stopped", log.FieldError, ev.Err)
			}
		}
	}

	results := batch.Results()
	for i, job := range jobs {
		rows[i].Result = results[job.Key]
	}
	summary := batch.SummarySnapshot()
	renderBatch(stdout, e.theme, rows, summary)

	for _, err := range batch.Errors() {
		e.logger.Error("batch job failed", log.FieldError, err)
	}
	if summary.Canceled {
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	}
	if summary.FailedJobs > 0 {
		return errRunFailed
	}
	return nil
}
