package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errRunFailed marks a command whose scrape completed but reported failed
// fields. The report has already been printed, so Execute only sets the exit
// status.
var errRunFailed = errors.New("scrape reported failures")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "movie-meta",
	Short: "Scrape movie metadata from several backends",
	Long: `movie-meta fills in movie metadata field by field. A scraper group decides which
backend answers each field (TheMovieDB, OMDb, TVDB, Imdb or the local media file),
and identifiers are resolved between backends as needed.

Run "movie-meta backends" to see what is available with the current configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var (
	configPath string
	logLevel   string
	logFormat  string
)

func init() {
	// Global flags for all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.movie-meta/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
}
