package player

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/pfr-stats/internal/dataset"
	"github.com/pfrederiksen/pfr-stats/internal/table"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return parse(t, string(data))
}

func column(t *testing.T, d dataset.Dataset, name string) dataset.Column {
	t.Helper()
	c, ok := d.Column(name)
	if !ok {
		t.Fatalf("column %q not found in %v", name, d.ColumnNames())
	}
	return c
}

func TestExtractPlayer_MergesCategoryTables(t *testing.T) {
	ds, err := ExtractPlayer(loadFixture(t, "joe-burrow-1.html"))
	if err != nil {
		t.Fatalf("ExtractPlayer() error = %v", err)
	}

	if ds.Len() != 2 {
		t.Fatalf("ExtractPlayer() returned %d rows, want 2", ds.Len())
	}

	want := []string{
		"year_id", "school_name", "conf_abbr", "class", "pos", "g",
		"pass_cmp", "pass_att", "pass_cmp_pct", "pass_yds", "pass_td",
		"rush_att", "rush_yds", "rush_td", "rec", "rec_yds",
	}
	if got := ds.ColumnNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("ColumnNames() = %v, want %v", got, want)
	}

	years := column(t, ds, YearKey)
	if years.Type != dataset.TypeNumber {
		t.Fatalf("year_id type = %v, want number", years.Type)
	}
	for i, want := range []int{2018, 2019} {
		if got, ok := years.Values[i].Int(); !ok || got != want {
			t.Errorf("year_id[%d] = %v, want %d", i, years.Values[i], want)
		}
	}

	if c := column(t, ds, "school_name"); c.Type != dataset.TypeText || c.Values[0].String() != "LSU" {
		t.Errorf("school_name = %+v", c)
	}
	rec := column(t, ds, "rec")
	if rec.Type != dataset.TypeNumber || !rec.Values[0].IsMissing() {
		t.Errorf("rec = %+v, want number column with a missing first season", rec)
	}
}

func TestExtractPlayer_DedupKeepsFirstTable(t *testing.T) {
	doc := parse(t, `
		<table id="passing"><tbody>
			<tr><th data-stat="year_id">2019</th><td data-stat="school_name"></td><td data-stat="g">12</td></tr>
		</tbody></table>
		<table id="rushing"><tbody>
			<tr><th data-stat="year_id">2019</th><td data-stat="school_name">LSU</td><td data-stat="g">99</td><td data-stat="rush_att">5</td></tr>
			<tr><th data-stat="year_id">2018</th><td data-stat="school_name">LSU</td><td data-stat="g">7</td><td data-stat="rush_att">3</td></tr>
		</tbody></table>`)

	ds, err := ExtractPlayer(doc)
	if err != nil {
		t.Fatalf("ExtractPlayer() error = %v", err)
	}

	if got := ds.ColumnNames(); !reflect.DeepEqual(got, []string{"year_id", "school_name", "g", "rush_att"}) {
		t.Fatalf("ColumnNames() = %v", got)
	}
	g := column(t, ds, "g")
	if g.Values[0].String() != "12" {
		t.Errorf("g[0] = %v, want first table's 12", g.Values[0])
	}
	if !g.Values[1].IsMissing() {
		t.Errorf("g[1] = %v, want missing padding from the first table", g.Values[1])
	}
	if school := column(t, ds, "school_name"); !school.Values[0].IsMissing() {
		t.Errorf("school_name[0] = %v, want the first table's blank cell", school.Values[0])
	}
	if years := column(t, ds, YearKey); !years.Values[1].IsMissing() {
		t.Errorf("year_id[1] = %v, want missing padding", years.Values[1])
	}
}

func TestExtract_ShorterFirstTableMissesSeason(t *testing.T) {
	doc := parse(t, `
		<table id="passing"><tbody>
			<tr><th data-stat="year_id">2019</th><td data-stat="g">12</td></tr>
		</tbody></table>
		<table id="rushing"><tbody>
			<tr><th data-stat="year_id">2019</th><td data-stat="rush_att">5</td></tr>
			<tr><th data-stat="year_id">2018</th><td data-stat="rush_att">3</td></tr>
		</tbody></table>`)

	_, err := Extract([]string{"a"}, []*goquery.Document{doc})
	if !errors.Is(err, dataset.ErrMissingIndexField) {
		t.Errorf("Extract() error = %v, want ErrMissingIndexField", err)
	}
}

func TestExtractPlayer_NoCategoryTables(t *testing.T) {
	ds, err := ExtractPlayer(parse(t, `<table id="bio"><tbody><tr><td data-stat="x">1</td></tr></tbody></table>`))
	if err != nil {
		t.Fatalf("ExtractPlayer() error = %v", err)
	}
	if !ds.Empty() || len(ds.Columns) != 0 {
		t.Errorf("ExtractPlayer() = %+v, want empty dataset", ds)
	}
}

func TestExtract_DefenseOnly(t *testing.T) {
	ds, err := Extract([]string{"chase-young-1"}, []*goquery.Document{loadFixture(t, "chase-young-1.html")})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []dataset.Key{
		{dataset.Text("chase-young-1"), dataset.Int(2019)},
		{dataset.Text("chase-young-1"), dataset.Int(2018)},
	}
	if !reflect.DeepEqual(ds.Index, want) {
		t.Errorf("Index = %v, want %v", ds.Index, want)
	}
	if !reflect.DeepEqual(ds.IndexNames, IndexNames) {
		t.Errorf("IndexNames = %v, want %v", ds.IndexNames, IndexNames)
	}
	for _, name := range ds.ColumnNames() {
		if name == YearKey || strings.HasPrefix(name, "pass_") || strings.HasPrefix(name, "rush_") {
			t.Errorf("unexpected column %q", name)
		}
	}
	if sacks := column(t, ds, "sacks"); sacks.Type != dataset.TypeNumber {
		t.Errorf("sacks type = %v, want number", sacks.Type)
	}
}

func TestExtract_MultiplePlayers(t *testing.T) {
	ids := []string{"joe-burrow-1", "nobody-1", "chase-young-1"}
	docs := []*goquery.Document{
		loadFixture(t, "joe-burrow-1.html"),
		parse(t, `<html><body><p>No stats</p></body></html>`),
		loadFixture(t, "chase-young-1.html"),
	}

	ds, err := Extract(ids, docs)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if ds.Len() != 4 {
		t.Fatalf("Extract() returned %d rows, want 4", ds.Len())
	}

	wantIndex := []dataset.Key{
		{dataset.Text("joe-burrow-1"), dataset.Int(2018)},
		{dataset.Text("joe-burrow-1"), dataset.Int(2019)},
		{dataset.Text("chase-young-1"), dataset.Int(2019)},
		{dataset.Text("chase-young-1"), dataset.Int(2018)},
	}
	if !reflect.DeepEqual(ds.Index, wantIndex) {
		t.Errorf("Index = %v, want %v", ds.Index, wantIndex)
	}

	passYds := column(t, ds, "pass_yds")
	if !passYds.Values[2].IsMissing() || !passYds.Values[3].IsMissing() {
		t.Errorf("pass_yds = %v, defenders should have missing passing stats", passYds.Values)
	}
	sacks := column(t, ds, "sacks")
	if !sacks.Values[0].IsMissing() {
		t.Errorf("sacks[0] = %v, want missing", sacks.Values[0])
	}
	if f, _ := sacks.Values[2].Float(); f != 16.5 {
		t.Errorf("sacks[2] = %v, want 16.5", sacks.Values[2])
	}
}

func TestExtract_Errors(t *testing.T) {
	noYear := parse(t, `<table id="defense"><tbody><tr><td data-stat="sacks">1</td></tr></tbody></table>`)
	badYear := parse(t, `<table id="defense"><tbody>
		<tr><th data-stat="year_id">2019</th></tr>
		<tr><th data-stat="year_id"></th></tr>
	</tbody></table>`)
	malformed := parse(t, `<table id="passing"><tbody><tr><td>1</td></tr></tbody></table>`)

	tests := []struct {
		name    string
		ids     []string
		docs    []*goquery.Document
		wantErr error
	}{
		{"length mismatch", []string{"a", "b"}, []*goquery.Document{noYear}, dataset.ErrLengthMismatch},
		{"no year column", []string{"a"}, []*goquery.Document{noYear}, dataset.ErrMissingIndexField},
		{"missing year value", []string{"a"}, []*goquery.Document{badYear}, dataset.ErrMissingIndexField},
		{"malformed table", []string{"a"}, []*goquery.Document{malformed}, table.ErrMalformedDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.ids, tt.docs)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Extract() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeasonYear(t *testing.T) {
	tests := []struct {
		in   dataset.Value
		want dataset.Value
	}{
		{dataset.Text("2019*"), dataset.Text("2019")},
		{dataset.Text("2019"), dataset.Text("2019")},
		{dataset.Text("Career"), dataset.Text("Career")},
		{dataset.Missing(), dataset.Missing()},
	}

	for _, tt := range tests {
		if got := seasonYear(tt.in); got != tt.want {
			t.Errorf("seasonYear(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
