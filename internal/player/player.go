package player

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/pfr-stats/internal/dataset"
	"github.com/pfrederiksen/pfr-stats/internal/logger"
	"github.com/pfrederiksen/pfr-stats/internal/table"
)

const (
	// YearKey is the stat key holding the season year
	YearKey = "year_id"

	PlayerIndex = "player_id"
)

// CategoryTables are the ids of the recognized category tables.
// Rushing and receiving share one physical table on the site.
var CategoryTables = []string{"passing", "rushing", "receiving", "defense"}

// IndexNames are the index parts of an aggregated player dataset
var IndexNames = []string{PlayerIndex, YearKey}

// seasonPattern matches the year at the start of a season cell such as "2019*"
var seasonPattern = regexp.MustCompile(`^\s*(\d{4})`)

// ExtractPlayer reads every category table on one player's page into a single unindexed
// dataset. Tables are composed by row position. A page without category tables yields an
// empty dataset.
func ExtractPlayer(doc *goquery.Document) (dataset.Dataset, error) {
	tables := table.FindTables(doc.Selection, CategoryTables...)
	if tables.Length() == 0 {
		return dataset.Dataset{}, nil
	}

	parts := make([]dataset.Dataset, 0, tables.Length())
	var err error
	tables.EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		var records []dataset.Record
		records, err = table.ExtractRows(table.BodyRows(tbl, false), nil)
		if err != nil {
			err = fmt.Errorf("%s table: %w", tbl.AttrOr("id", ""), err)
			return false
		}
		parts = append(parts, dataset.FromRecords(records))
		return true
	})
	if err != nil {
		return dataset.Dataset{}, err
	}

	merged := dataset.DedupColumns(dataset.HConcat(parts...))
	merged = merged.MapColumn(YearKey, seasonYear)
	return dataset.Coerce(merged), nil
}

// seasonYear trims season markers so the year column always coerces to integers
func seasonYear(v dataset.Value) dataset.Value {
	if m := seasonPattern.FindStringSubmatch(v.String()); m != nil {
		return dataset.Text(m[1])
	}
	return v
}

// Extract reads one page per player and stacks the results. ids and docs are parallel;
// row order follows their order. Each row is indexed by its player id and the season
// year found in the row itself. Players without category tables contribute no rows.
func Extract(ids []string, docs []*goquery.Document) (dataset.Dataset, error) {
	if len(ids) != len(docs) {
		return dataset.Dataset{}, fmt.Errorf("%w: %d player ids, %d documents", dataset.ErrLengthMismatch, len(ids), len(docs))
	}

	parts := make([]dataset.Dataset, 0, len(docs))
	for i, doc := range docs {
		ds, err := ExtractPlayer(doc)
		if err != nil {
			return dataset.Dataset{}, fmt.Errorf("player %s: %w", ids[i], err)
		}
		if ds.Empty() {
			logger.Debug("player has no category tables", logger.Fields{"player_id": ids[i]})
			continue
		}

		ds, err = indexBySeason(ids[i], ds)
		if err != nil {
			return dataset.Dataset{}, err
		}

		logger.Debug("player extracted", logger.Fields{
			"player_id": ids[i],
			"seasons":   ds.Len(),
		})
		logger.AddCounter("player.rows", int64(ds.Len()))
		parts = append(parts, ds)
	}

	out, err := dataset.Concat(parts...)
	if err != nil {
		return dataset.Dataset{}, err
	}
	out.IndexNames = append([]string(nil), IndexNames...)
	return out, nil
}

// indexBySeason moves the season column of ds into the index, paired with id
func indexBySeason(id string, ds dataset.Dataset) (dataset.Dataset, error) {
	years, rest, ok := ds.TakeColumn(YearKey)
	if !ok {
		return dataset.Dataset{}, fmt.Errorf("%w: player %s has no %s column", dataset.ErrMissingIndexField, id, YearKey)
	}

	keys := make([]dataset.Key, len(years.Values))
	for j, v := range years.Values {
		year, ok := v.Int()
		if !ok {
			return dataset.Dataset{}, fmt.Errorf("%w: player %s row %d has %s %q", dataset.ErrMissingIndexField, id, j, YearKey, v.String())
		}
		keys[j] = dataset.Key{dataset.Text(id), dataset.Int(year)}
	}
	return rest.WithIndex(IndexNames, keys)
}
