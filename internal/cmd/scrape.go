package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/Digital-Shane/movie-meta/internal/core"
	"github.com/Digital-Shane/movie-meta/internal/group"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/spf13/cobra"
)

// scrapeOptions are the flags of the scrape command.
type scrapeOptions struct {
	Title     string
	Year      int
	ImdbID    string
	TmdbID    string
	File      string
	Group     string
	TestGroup bool
}

var scrapeOpts scrapeOptions

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape one movie with a scraper group",
	Long: `Scrape one movie field by field. The movie is described by a title and year,
known identifiers, a local media file, or any combination of them. When only a file
is given, the title and year are taken from its name.`,
	Example: `  movie-meta scrape --title "The Dark Knight" --year 2008 --group Default
  movie-meta scrape --imdb tt0468569 --test-group
  movie-meta scrape --file "/movies/Heat (1995)/Heat.1995.1080p.mkv"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runScrape(ctx, currentGlobals(), scrapeOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVarP(&scrapeOpts.Title, "title", "t", "", "Movie title")
	f.IntVarP(&scrapeOpts.Year, "year", "y", 0, "Release year")
	f.StringVar(&scrapeOpts.ImdbID, "imdb", "", "IMDb id, e.g. tt0468569")
	f.StringVar(&scrapeOpts.TmdbID, "tmdb", "", "TheMovieDB id")
	f.StringVarP(&scrapeOpts.File, "file", "f", "", "Local media file")
	f.StringVarP(&scrapeOpts.Group, "group", "g", "", "Scraper group (default from config)")
	f.BoolVar(&scrapeOpts.TestGroup, "test-group", false, "Use the built-in test group")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(ctx context.Context, globals globalOptions, opts scrapeOptions, stdout, stderr io.Writer) error {
	movie, err := opts.movie()
	if err != nil {
		return err
	}

	e, err := loadEnv(globals, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.close()

	movie.ScraperGroup = opts.groupName(e.cfg.Scrape.DefaultGroup)
	report, err := e.scraper().RunNamed(ctx, movie)
	if err != nil {
		if errors.Is(err, core.ErrUnknownScraperGroup) {
			return fmt.Errorf("%w (known groups: %s)", err, strings.Join(e.groups.Names(), ", "))
		}
		return err
	}

	renderReport(stdout, e.theme, report, movie)
	if report.Err != nil {
		return report.Err
	}
	if !report.Success {
		return errRunFailed
	}
	return nil
}

// movie builds the record to scrape from the flags. Explicit flags win over
// whatever was parsed from the file name.
func (o scrapeOptions) movie() (*media.Movie, error) {
	movie := &media.Movie{}
	if path := strings.TrimSpace(o.File); path != "" {
		movie = media.MovieFromFile(path)
	}
	if title := strings.TrimSpace(o.Title); title != "" {
		movie.Title = title
	}
	if o.Year > 0 {
		movie.Year = o.Year
	}
	if id := strings.TrimSpace(o.ImdbID); id != "" {
		movie.ImdbID = media.NormalizeImdbID(id)
	}
	if id := strings.TrimSpace(o.TmdbID); id != "" {
		movie.TmdbID = id
	}

	if movie.Title == "" && movie.ImdbID == "" && movie.TmdbID == "" && movie.FilePath == "" {
		return nil, errors.New("nothing to scrape: give --title, --imdb, --tmdb or --file")
	}
	return movie, nil
}

func (o scrapeOptions) groupName(fallback string) string {
	if o.TestGroup {
		return group.TestGroupName
	}
	if name := strings.TrimSpace(o.Group); name != "" {
		return name
	}
	return fallback
}
