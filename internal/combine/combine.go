package combine

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/pfr-stats/internal/dataset"
	"github.com/pfrederiksen/pfr-stats/internal/logger"
	"github.com/pfrederiksen/pfr-stats/internal/table"
)

const (
	// TableID is the id of the combine results table
	TableID = "combine"
	// CollegeKey is the stat key of the college link column
	CollegeKey = "college"

	YearIndex   = "combine_year"
	PlayerIndex = "player_id"
)

// IndexNames are the index parts of an aggregated combine dataset
var IndexNames = []string{YearIndex, PlayerIndex}

// CollegeValue reads the href of the college cell's link, or "" when the cell has no
// link. Every other cell is read as trimmed display text.
func CollegeValue(cell *goquery.Selection) string {
	if cell.AttrOr(table.StatAttr, "") != CollegeKey {
		return table.TextValue(cell)
	}
	link := cell.Find("a").First()
	if link.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(link.AttrOr("href", ""))
}

// ExtractYear reads the combine table of one year's page into an unindexed dataset,
// rows in document order
func ExtractYear(doc *goquery.Document, year int) (dataset.Dataset, error) {
	tbl, err := table.FindTable(doc.Selection, TableID)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("combine %d: %w", year, err)
	}

	records, err := table.ExtractRows(table.BodyRows(tbl, true), CollegeValue)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("combine %d: %w", year, err)
	}

	return dataset.Coerce(dataset.FromRecords(records), CollegeKey), nil
}

// Extract reads one combine page per year and stacks the results. years and docs are
// parallel; row order follows their order. Each row is indexed by its year and a
// zero-based position within that year.
func Extract(years []int, docs []*goquery.Document) (dataset.Dataset, error) {
	if len(years) != len(docs) {
		return dataset.Dataset{}, fmt.Errorf("%w: %d years, %d documents", dataset.ErrLengthMismatch, len(years), len(docs))
	}

	parts := make([]dataset.Dataset, 0, len(docs))
	for i, doc := range docs {
		ds, err := ExtractYear(doc, years[i])
		if err != nil {
			return dataset.Dataset{}, err
		}

		keys := make([]dataset.Key, ds.Len())
		for j := range keys {
			keys[j] = dataset.Key{dataset.Int(years[i]), dataset.Int(j)}
		}
		ds, err = ds.WithIndex(IndexNames, keys)
		if err != nil {
			return dataset.Dataset{}, fmt.Errorf("combine %d: %w", years[i], err)
		}

		logger.Debug("combine year extracted", logger.Fields{
			"year": years[i],
			"rows": ds.Len(),
		})
		logger.AddCounter("combine.rows", int64(ds.Len()))
		parts = append(parts, ds)
	}

	out, err := dataset.Concat(parts...)
	if err != nil {
		return dataset.Dataset{}, err
	}
	out.IndexNames = append([]string(nil), IndexNames...)
	return out, nil
}
