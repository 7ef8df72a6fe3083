package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/Digital-Shane/movie-meta/internal/config"
	"github.com/Digital-Shane/movie-meta/internal/core"
	"github.com/Digital-Shane/movie-meta/internal/group"
	"github.com/Digital-Shane/movie-meta/internal/log"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/Digital-Shane/movie-meta/internal/provider/catalog"
	"github.com/Digital-Shane/movie-meta/internal/theme"
	"github.com/mattn/go-isatty"
)

// buildRegistry constructs the backend registry; tests swap it for fakes.
var buildRegistry = catalog.Build

// env bundles what every command needs after startup.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *provider.Registry
	groups   *group.Store
	theme    theme.Theme

	closeLog func() error
}

// globalOptions are the persistent flags shared by all commands.
type globalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

func currentGlobals() globalOptions {
	return globalOptions{ConfigPath: configPath, LogLevel: logLevel, LogFormat: logFormat}
}

// loadEnv reads the configuration, sets up logging, builds the registry and
// collects the scraper groups: the built-in test group, groups from the
// config file, then group files from the groups directory.
func loadEnv(opts globalOptions, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := log.New(log.Options{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		Writer:        stderr,
		Dir:           cfg.Logging.Dir,
		RetentionDays: cfg.Logging.RetentionDays,
	})
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	e := &env{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		theme:    theme.New(theme.WithPlain(!isTerminal(stdout))),
	}
	if e.registry, err = buildRegistry(cfg, logger); err != nil {
		e.close()
		return nil, err
	}
	if e.groups, err = loadGroups(cfg); err != nil {
		e.close()
		return nil, err
	}

	for _, name := range e.groups.Names() {
		grp, _ := e.groups.Group(name)
		for _, fa := range grp.Unresolved(e.registry) {
			logger.Debug("group field has no usable backend",
				log.FieldGroup, name,
				log.FieldField, fa.Field.String(),
				log.FieldBackend, fa.Assignment.String())
		}
	}
	return e, nil
}

func loadGroups(cfg *config.Config) (*group.Store, error) {
	store, err := group.NewStore(group.TestGroup())
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.Groups))
	for name := range cfg.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		grp, err := group.New(name, cfg.Groups[name])
		if err != nil {
			return nil, fmt.Errorf("config group %s: %w", name, err)
		}
		if err := store.Add(grp); err != nil {
			return nil, err
		}
	}

	if cfg.Scrape.GroupsDir != "" {
		if err := store.LoadDir(cfg.Scrape.GroupsDir); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (e *env) scraper() *core.Scraper {
	return core.NewScraper(e.registry, core.Options{
		Groups:       e.groups,
		Region:       e.cfg.Scrape.Region,
		FieldTimeout: e.cfg.FieldTimeout(),
		Logger:       e.logger,
	})
}

func (e *env) close() {
	if e.closeLog != nil {
		_ = e.closeLog()
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
