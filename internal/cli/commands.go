package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pfrederiksen/pfr-stats/internal/combine"
	"github.com/pfrederiksen/pfr-stats/internal/dataset"
	"github.com/pfrederiksen/pfr-stats/internal/logger"
	"github.com/pfrederiksen/pfr-stats/internal/player"
	"github.com/pfrederiksen/pfr-stats/internal/scraper"
	"github.com/pfrederiksen/pfr-stats/internal/storage"
	"github.com/spf13/cobra"
)

func newCombineCmd(a *app) *cobra.Command {
	var years []int

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Extract combine results for one or more years",
		Example: `  pfr-stats combine --years 2019,2020
  pfr-stats combine --years 2020 --format csv --output combine.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateYears(years); err != nil {
				return err
			}

			var ds dataset.Dataset
			err := a.withFetcher(func(f scraper.Fetcher) error {
				var err error
				ds, err = fetchCombine(cmd.Context(), f, a.cfg.Sites.Combine, years)
				return err
			})
			if err != nil {
				return err
			}

			return a.finish("combine", ds)
		},
	}

	cmd.Flags().IntSliceVar(&years, "years", nil, "Combine years to extract (required)")
	_ = cmd.MarkFlagRequired("years")

	return cmd
}

func newPlayersCmd(a *app) *cobra.Command {
	var (
		slugs []string
		names []string
	)

	cmd := &cobra.Command{
		Use:   "players",
		Short: "Extract college statistics for players by page slug or name",
		Example: `  pfr-stats players --slug joe-burrow-1 --slug chase-young-1
  pfr-stats players --name "Joe Burrow"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := playerSlugs(slugs, names)
			if err != nil {
				return err
			}

			urls := make([]string, len(ids))
			for i, id := range ids {
				urls[i] = scraper.PlayerURL(a.cfg.Sites.College, id)
			}

			var ds dataset.Dataset
			err = a.withFetcher(func(f scraper.Fetcher) error {
				docs, err := scraper.FetchAll(cmd.Context(), f, urls)
				if err != nil {
					return err
				}
				ds, err = player.Extract(ids, docs)
				if err != nil {
					return fmt.Errorf("extracting player stats: %w", err)
				}
				return nil
			})
			if err != nil {
				return err
			}

			return a.finish("players", ds)
		},
	}

	cmd.Flags().StringSliceVar(&slugs, "slug", nil, "Player page slug, e.g. joe-burrow-1")
	cmd.Flags().StringArrayVar(&names, "name", nil, "Player name, e.g. \"Joe Burrow\"")

	return cmd
}

func newCollegeCmd(a *app) *cobra.Command {
	var years []int

	cmd := &cobra.Command{
		Use:   "college",
		Short: "Extract college statistics for every combine participant with a college link",
		Long: `Extract the combine results for the given years, then follow each participant's
college statistics link. Players are identified as <combine_year>-<player_id>.`,
		Example: `  pfr-stats college --years 2020 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateYears(years); err != nil {
				return err
			}

			var ds dataset.Dataset
			err := a.withFetcher(func(f scraper.Fetcher) error {
				combined, err := fetchCombine(cmd.Context(), f, a.cfg.Sites.Combine, years)
				if err != nil {
					return err
				}

				ids, urls := collegeLinks(combined, a.cfg.Sites.College)
				logger.Info("following college links", logger.Fields{"players": len(ids)})

				docs, err := scraper.FetchAll(cmd.Context(), f, urls)
				if err != nil {
					return err
				}
				ds, err = player.Extract(ids, docs)
				if err != nil {
					return fmt.Errorf("extracting college stats: %w", err)
				}
				return nil
			})
			if err != nil {
				return err
			}

			return a.finish("college", ds)
		},
	}

	cmd.Flags().IntSliceVar(&years, "years", nil, "Combine years whose participants to follow (required)")
	_ = cmd.MarkFlagRequired("years")

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		name       string
		sqlitePath string
		tableName  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a saved snapshot to SQLite or in the chosen output format",
		Example: `  pfr-stats export --name combine --sqlite stats.db
  pfr-stats export --name players --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			ds, err := store.LoadDataset(name)
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}

			if sqlitePath == "" {
				return a.write(name, ds)
			}

			if tableName == "" {
				tableName = name
			}
			if err := storage.WriteSQLite(sqlitePath, tableName, ds); err != nil {
				return fmt.Errorf("exporting to sqlite: %w", err)
			}
			fmt.Fprintf(a.stdout, "Wrote %d rows to %s (table %s)\n", ds.Len(), sqlitePath, tableName)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Snapshot name: combine, players or college (required)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database to write")
	cmd.Flags().StringVar(&tableName, "table", "", "Table name (defaults to the snapshot name)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// fetchCombine loads and aggregates the combine pages for years
func fetchCombine(ctx context.Context, f scraper.Fetcher, base string, years []int) (dataset.Dataset, error) {
	urls := make([]string, len(years))
	for i, y := range years {
		urls[i] = scraper.CombineURL(base, y)
	}

	docs, err := scraper.FetchAll(ctx, f, urls)
	if err != nil {
		return dataset.Dataset{}, err
	}

	ds, err := combine.Extract(years, docs)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("extracting combine results: %w", err)
	}
	return ds, nil
}

// collegeLinks returns an id and URL for every combine row with a college link
func collegeLinks(ds dataset.Dataset, base string) ([]string, []string) {
	col, ok := ds.Column(combine.CollegeKey)
	if !ok {
		return nil, nil
	}

	var ids, urls []string
	for i, v := range col.Values {
		if v.IsMissing() || i >= len(ds.Index) {
			continue
		}
		year, _ := ds.Index[i][0].Int()
		pid, _ := ds.Index[i][1].Int()

		u, err := scraper.CollegeURL(base, v.String())
		if err != nil {
			logger.Warn("skipping college link", logger.Fields{"year": year, "player_id": pid, "error": err.Error()})
			continue
		}
		ids = append(ids, fmt.Sprintf("%d-%d", year, pid))
		urls = append(urls, u)
	}
	return ids, urls
}

func validateYears(years []int) error {
	if len(years) == 0 {
		return fmt.Errorf("--years is required")
	}
	for _, y := range years {
		if y < 1900 || y > 2999 {
			return fmt.Errorf("invalid year: %d", y)
		}
	}
	return nil
}

// playerSlugs merges explicit slugs with slugs derived from "First Last" names
func playerSlugs(slugs, names []string) ([]string, error) {
	ids := make([]string, 0, len(slugs)+len(names))
	for _, s := range slugs {
		s = strings.TrimSpace(s)
		if s != "" {
			ids = append(ids, s)
		}
	}
	for _, n := range names {
		first, last, ok := strings.Cut(strings.TrimSpace(n), " ")
		if !ok || strings.TrimSpace(last) == "" {
			return nil, fmt.Errorf("invalid player name %q (want \"First Last\")", n)
		}
		ids = append(ids, scraper.PlayerSlug(first, last, 1))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one --slug or --name is required")
	}
	return ids, nil
}
