package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/pfr-stats/internal/config"
	"github.com/pfrederiksen/pfr-stats/internal/dataset"
	"github.com/pfrederiksen/pfr-stats/internal/filter"
	"github.com/pfrederiksen/pfr-stats/internal/logger"
	"github.com/pfrederiksen/pfr-stats/internal/scraper"
	"github.com/pfrederiksen/pfr-stats/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// app carries the settings shared by every subcommand
type app struct {
	configPath string
	dataDir    string
	format     string
	output     string
	verbose    bool
	browser    bool
	noSave     bool
	refresh    bool
	newOnly    bool
	where      []string

	filter *filter.Filter

	cfg config.Config

	// newFetcher is replaced in tests
	newFetcher func(config.Config) (scraper.Fetcher, func() error, error)
	stdout     io.Writer
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{newFetcher: defaultFetcher, stdout: os.Stdout})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pfr-stats",
		Short: "Extract NFL combine results and college player statistics",
		Long: `A CLI tool to extract NFL scouting combine results and college player
statistics from Pro Football Reference and Sports Reference pages.
Results are printed in the chosen format and saved as snapshots.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&a.dataDir, "data-dir", "", "Data directory for snapshots")
	flags.StringVar(&a.format, "format", "", "Output format: text, json, csv or xlsx")
	flags.StringVar(&a.output, "output", "", "Write output to a file instead of stdout")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable verbose logging")
	flags.BoolVar(&a.browser, "browser", false, "Load pages in a headless browser")
	flags.BoolVar(&a.noSave, "no-save", false, "Do not save a snapshot")
	flags.BoolVar(&a.refresh, "refresh", false, "Fetch every page again instead of using cached copies")
	flags.BoolVar(&a.newOnly, "new-only", false, "Only output rows not present in the previous snapshot")
	flags.StringArrayVar(&a.where, "where", nil, "Only output rows matching a condition such as pos=WR|TE or forty_yd<=4.4 (repeatable)")

	cmd.AddCommand(
		newCombineCmd(a),
		newPlayersCmd(a),
		newCollegeCmd(a),
		newExportCmd(a),
	)

	return cmd
}

// setup resolves config file, environment and flags, in that order of precedence
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("format") {
		cfg.Format = a.format
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if flags.Changed("browser") {
		cfg.Fetch.Browser = a.browser
	}
	if a.verbose {
		cfg.Log.Level = string(logger.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Format == string(FormatXLSX) && a.output == "" {
		return fmt.Errorf("xlsx output requires --output")
	}

	f, err := filter.Parse(a.where)
	if err != nil {
		return err
	}
	a.filter = f

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	if strings.EqualFold(cfg.Log.Format, "json") {
		logger.SetDefault(logger.New(level, os.Stderr))
	} else {
		logger.SetDefault(logger.NewConsole(level, os.Stderr))
	}

	a.cfg = cfg
	logger.Debug("config loaded", logger.Fields{
		"data_dir": cfg.DataDir,
		"format":   cfg.Format,
		"browser":  cfg.Fetch.Browser,
	})
	return nil
}

func defaultFetcher(cfg config.Config) (scraper.Fetcher, func() error, error) {
	if !cfg.Fetch.Browser {
		return scraper.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent), func() error { return nil }, nil
	}

	bf, err := scraper.NewBrowserFetcher(scraper.BrowserOptions{
		Headless: cfg.Fetch.Headless,
		Bin:      cfg.Fetch.BrowserBin,
		Settle:   cfg.Fetch.Settle,
	})
	if err != nil {
		return nil, nil, err
	}
	return bf, bf.Close, nil
}

// withFetcher runs fn with one fetcher, throttled and behind the page cache
// unless caching is disabled, and releases it afterwards
func (a *app) withFetcher(fn func(scraper.Fetcher) error) (err error) {
	f, closeFn, err := a.newFetcher(a.cfg)
	if err != nil {
		return fmt.Errorf("initializing fetcher: %w", err)
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	f = scraper.Throttle(f, a.cfg.Fetch.Wait)
	if a.cfg.Fetch.CacheTTL > 0 {
		cache, cerr := a.pageCache()
		if cerr != nil {
			return cerr
		}
		f = scraper.Cached(f, cache, a.refresh)
	}

	return fn(f)
}

func (a *app) pageCache() (*scraper.PageCache, error) {
	store, err := storage.New(a.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	cache, err := scraper.NewPageCache(filepath.Join(store.Dir(), "pages"), a.cfg.Fetch.CacheTTL)
	if err != nil {
		return nil, err
	}
	if removed, err := cache.CleanExpired(); err != nil {
		logger.Warn("cleaning page cache", logger.Fields{"error": err.Error()})
	} else if removed > 0 {
		logger.Debug("expired pages removed", logger.Fields{"removed": removed})
	}
	return cache, nil
}

// finish compares ds with the previous snapshot of the same name, saves it
// unless disabled, then writes it out
func (a *app) finish(name string, ds dataset.Dataset) error {
	store, err := storage.New(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	previous, err := store.LoadDataset(name)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("loading previous snapshot: %w", err)
	}

	diff := dataset.Diff(previous, ds)
	logger.Info("compared with previous snapshot", logger.Fields{
		"name":          name,
		"new_rows":      diff.New.Len(),
		"changed_cells": len(diff.Changes),
	})
	for _, c := range diff.Changes {
		logger.Debug("cell changed", logger.Fields{
			"key":    c.Key,
			"column": c.Column,
			"old":    c.Old.String(),
			"new":    c.New.String(),
		})
	}

	if !a.noSave {
		if err := store.SaveDataset(name, ds); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		logger.Debug("snapshot saved", logger.Fields{"name": name, "dir": store.Dir()})
	}

	if a.newOnly {
		return a.write(name, diff.New)
	}
	return a.write(name, ds)
}

// write renders ds to --output or stdout in the configured format
func (a *app) write(name string, ds dataset.Dataset) (err error) {
	format, err := ParseFormat(a.cfg.Format)
	if err != nil {
		return err
	}

	ds, err = a.filter.Apply(ds)
	if err != nil {
		return err
	}
	if !a.filter.IsEmpty() {
		logger.Debug("rows filtered", logger.Fields{"filter": a.filter.String(), "rows": ds.Len()})
	}

	w := a.stdout
	if a.output != "" {
		file, ferr := os.Create(a.output)
		if ferr != nil {
			return fmt.Errorf("creating output file: %w", ferr)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = file
	}

	if err = WriteOutput(w, NewResult(name, ds), format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if a.verbose {
		logger.Info("run complete", logger.MetricsSnapshot())
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
