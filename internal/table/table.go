package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pfrederiksen/pfr-stats/internal/dataset"
)

// StatAttr is the cell attribute holding the stat key
const StatAttr = "data-stat"

var (
	// ErrTableNotFound is returned when a required table is absent from the document
	ErrTableNotFound = errors.New("table not found")
	// ErrMalformedDocument is returned when a cell has no stat key
	ErrMalformedDocument = errors.New("malformed document")
)

var (
	tableMatcher     = cascadia.MustCompile("table")
	bodyMatcher      = cascadia.MustCompile("tbody")
	rowMatcher       = cascadia.MustCompile("tr")
	cellMatcher      = cascadia.MustCompile("th, td")
	headerRowMatcher = cascadia.MustCompile("tr.thead")
)

// ValueFunc reads the value of a single th or td cell
type ValueFunc func(cell *goquery.Selection) string

// TextValue returns the trimmed display text of a cell
func TextValue(cell *goquery.Selection) string {
	return strings.TrimSpace(cell.Text())
}

// ExtractRows returns one record per row, keyed by each cell's stat key.
// A nil fn reads display text.
func ExtractRows(rows *goquery.Selection, fn ValueFunc) ([]dataset.Record, error) {
	if fn == nil {
		fn = TextValue
	}

	records := make([]dataset.Record, 0, rows.Length())
	var err error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		var rec dataset.Record
		row.FindMatcher(cellMatcher).EachWithBreak(func(j int, cell *goquery.Selection) bool {
			key, ok := cell.Attr(StatAttr)
			if !ok {
				err = fmt.Errorf("%w: row %d cell %d has no %s attribute", ErrMalformedDocument, i, j, StatAttr)
				return false
			}
			rec.Set(key, fn(cell))
			return true
		})
		if err != nil {
			return false
		}
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// FindTable returns the first table whose id is id
func FindTable(doc *goquery.Selection, id string) (*goquery.Selection, error) {
	tbl := doc.FindMatcher(tableMatcher).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
	if tbl.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, id)
	}
	return tbl, nil
}

// FindTables returns every table whose id is one of ids, in document order
func FindTables(doc *goquery.Selection, ids ...string) *goquery.Selection {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return doc.FindMatcher(tableMatcher).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return want[s.AttrOr("id", "")]
	})
}

// BodyRows returns the rows of the table's first tbody. When skipHeaderRows is
// set, the header rows the site repeats inside long tables (class "thead") are dropped.
func BodyRows(tbl *goquery.Selection, skipHeaderRows bool) *goquery.Selection {
	rows := tbl.FindMatcher(bodyMatcher).First().FindMatcher(rowMatcher)
	if skipHeaderRows {
		rows = rows.NotMatcher(headerRowMatcher)
	}
	return rows
}
