package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pfrederiksen/pfr-stats/internal/config"
	"github.com/pfrederiksen/pfr-stats/internal/scraper"
	"github.com/xuri/excelize/v2"
)

var fixtureRoutes = map[string]string{
	"/draft/2021-combine.htm":         "testdata/combine_2021.html",
	"/cfb/players/kyle-pitts-1.html": "testdata/kyle-pitts-1.html",
}

// newTestServer serves the fixture pages and counts requests per path
func newTestServer(t *testing.T) (*httptest.Server, func(string) int) {
	t.Helper()

	var mu sync.Mutex
	hits := make(map[string]int)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()

		file, ok := fixtureRoutes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		data, err := os.ReadFile(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	t.Setenv("PFR_STATS_COMBINE_URL", server.URL)
	t.Setenv("PFR_STATS_COLLEGE_URL", server.URL)
	t.Setenv("PFR_STATS_WAIT", "0s")

	return server, func(path string) int {
		mu.Lock()
		defer mu.Unlock()
		return hits[path]
	}
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	a := &app{
		newFetcher: func(cfg config.Config) (scraper.Fetcher, func() error, error) {
			return scraper.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent), func() error { return nil }, nil
		},
		stdout: &out,
	}

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestCombineCommand_CSV(t *testing.T) {
	newTestServer(t)
	dataDir := t.TempDir()

	out, err := runCmd(t, "combine", "--years", "2021", "--format", "csv", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("combine failed: %v\n%s", err, out)
	}

	wantLines := []string{
		"combine_year,player_id,player,pos,college,weight,forty_yd",
		"2021,0,Kyle Pitts,TE,/cfb/players/kyle-pitts-1.html,245,4.44",
		"2021,1,Penei Sewell,OT,,331,",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("expected output line %q, got:\n%s", line, out)
		}
	}

	if _, err := os.Stat(filepath.Join(dataDir, "combine.json")); err != nil {
		t.Errorf("expected combine snapshot to be saved: %v", err)
	}
}

func TestCombineCommand_NewOnlyAndCache(t *testing.T) {
	_, hits := newTestServer(t)
	t.Setenv("PFR_STATS_CACHE_TTL", "1h")
	dataDir := t.TempDir()

	if _, err := runCmd(t, "combine", "--years", "2021", "--format", "csv", "--data-dir", dataDir); err != nil {
		t.Fatalf("first combine failed: %v", err)
	}

	out, err := runCmd(t, "combine", "--years", "2021", "--format", "csv", "--new-only", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("second combine failed: %v", err)
	}
	if want := "combine_year,player_id,player,pos,college,weight,forty_yd\n"; out != want {
		t.Errorf("expected header only, got:\n%s", out)
	}

	if n := hits("/draft/2021-combine.htm"); n != 1 {
		t.Errorf("expected second run served from cache, got %d requests", n)
	}

	if _, err := runCmd(t, "combine", "--years", "2021", "--refresh", "--no-save", "--data-dir", dataDir); err != nil {
		t.Fatalf("refresh combine failed: %v", err)
	}
	if n := hits("/draft/2021-combine.htm"); n != 2 {
		t.Errorf("expected --refresh to fetch again, got %d requests", n)
	}
}

func TestCombineCommand_NoCacheByDefault(t *testing.T) {
	_, hits := newTestServer(t)

	for i := 0; i < 2; i++ {
		if _, err := runCmd(t, "combine", "--years", "2021", "--no-save", "--data-dir", t.TempDir()); err != nil {
			t.Fatalf("combine run %d failed: %v", i+1, err)
		}
	}
	if n := hits("/draft/2021-combine.htm"); n != 2 {
		t.Errorf("expected every run to fetch the page, got %d requests", n)
	}
}

func TestCombineCommand_UppercaseFormat(t *testing.T) {
	newTestServer(t)
	t.Setenv("PFR_STATS_FORMAT", "CSV")

	out, err := runCmd(t, "combine", "--years", "2021", "--no-save", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}
	if !strings.HasPrefix(out, "combine_year,player_id,player") {
		t.Errorf("expected csv output, got:\n%s", out)
	}
}

func TestCombineCommand_Where(t *testing.T) {
	newTestServer(t)

	out, err := runCmd(t, "combine", "--years", "2021", "--format", "csv", "--where", "weight>300", "--no-save", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}
	if strings.Contains(out, "Kyle Pitts") || !strings.Contains(out, "Penei Sewell") {
		t.Errorf("expected only Penei Sewell, got:\n%s", out)
	}

	if _, err := runCmd(t, "combine", "--years", "2021", "--where", "weight", "--no-save", "--data-dir", t.TempDir()); err == nil {
		t.Error("expected error for malformed --where")
	}
}

func TestCombineCommand_NoSave(t *testing.T) {
	newTestServer(t)
	dataDir := t.TempDir()

	if _, err := runCmd(t, "combine", "--years", "2021", "--no-save", "--data-dir", dataDir); err != nil {
		t.Fatalf("combine failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "combine.json")); !os.IsNotExist(err) {
		t.Errorf("expected no snapshot, stat returned %v", err)
	}
}

func TestCombineCommand_Errors(t *testing.T) {
	newTestServer(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing page", []string{"combine", "--years", "1999", "--no-save"}, "404"},
		{"years required", []string{"combine", "--no-save"}, "years"},
		{"invalid year", []string{"combine", "--years", "20", "--no-save"}, "invalid year"},
		{"invalid format", []string{"combine", "--years", "2021", "--format", "pdf"}, "pdf"},
		{"xlsx needs output", []string{"combine", "--years", "2021", "--format", "xlsx"}, "--output"},
		{"uppercase xlsx needs output", []string{"combine", "--years", "2021", "--format", "XLSX"}, "--output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, append(tt.args, "--data-dir", t.TempDir())...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCollegeCommand_JSON(t *testing.T) {
	_, hits := newTestServer(t)

	out, err := runCmd(t, "college", "--years", "2021", "--format", "json", "--no-save", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("college failed: %v\n%s", err, out)
	}

	var result struct {
		Name     string          `json:"name"`
		RowCount int             `json:"row_count"`
		Columns  []string        `json:"columns"`
		Rows     [][]interface{} `json:"rows"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}

	if result.Name != "college" {
		t.Errorf("expected name college, got %q", result.Name)
	}
	if result.RowCount != 2 {
		t.Fatalf("expected 2 seasons, got %d", result.RowCount)
	}
	if result.Columns[0] != "player_id" || result.Columns[1] != "year_id" {
		t.Errorf("expected player_id, year_id index columns, got %v", result.Columns)
	}
	if result.Rows[0][0] != "2021-0" {
		t.Errorf("expected player id 2021-0, got %v", result.Rows[0][0])
	}
	if result.Rows[0][1] != float64(2020) || result.Rows[1][1] != float64(2019) {
		t.Errorf("expected seasons 2020 and 2019, got %v and %v", result.Rows[0][1], result.Rows[1][1])
	}

	if n := hits("/cfb/players/kyle-pitts-1.html"); n != 1 {
		t.Errorf("expected college page fetched once, got %d", n)
	}
}

func TestPlayersCommand_Name(t *testing.T) {
	newTestServer(t)

	out, err := runCmd(t, "players", "--name", "Kyle Pitts", "--no-save", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("players failed: %v\n%s", err, out)
	}

	if !strings.Contains(out, "kyle-pitts-1") {
		t.Errorf("expected slug in text output, got:\n%s", out)
	}
	if !strings.Contains(out, "Total: 2 rows") {
		t.Errorf("expected row total, got:\n%s", out)
	}
}

func TestPlayersCommand_RequiresPlayer(t *testing.T) {
	newTestServer(t)

	if _, err := runCmd(t, "players", "--no-save", "--data-dir", t.TempDir()); err == nil {
		t.Error("expected error without --slug or --name")
	}
	if _, err := runCmd(t, "players", "--name", "Pitts", "--no-save", "--data-dir", t.TempDir()); err == nil {
		t.Error("expected error for single-word name")
	}
}

func TestExportCommand_SQLite(t *testing.T) {
	newTestServer(t)
	dataDir := t.TempDir()

	if _, err := runCmd(t, "combine", "--years", "2021", "--format", "json", "--data-dir", dataDir); err != nil {
		t.Fatalf("combine failed: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "stats.db")
	out, err := runCmd(t, "export", "--name", "combine", "--sqlite", dbPath, "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Wrote 2 rows") {
		t.Errorf("unexpected export output: %s", out)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	var player string
	if err := db.QueryRow(`SELECT player FROM combine WHERE player_id = 1`).Scan(&player); err != nil {
		t.Fatalf("querying export: %v", err)
	}
	if player != "Penei Sewell" {
		t.Errorf("expected Penei Sewell, got %q", player)
	}
}

func TestExportCommand_Formats(t *testing.T) {
	newTestServer(t)
	dataDir := t.TempDir()

	if _, err := runCmd(t, "combine", "--years", "2021", "--format", "json", "--data-dir", dataDir); err != nil {
		t.Fatalf("combine failed: %v", err)
	}

	xlsxPath := filepath.Join(t.TempDir(), "combine.xlsx")
	if _, err := runCmd(t, "export", "--name", "combine", "--format", "xlsx", "--output", xlsxPath, "--data-dir", dataDir); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("combine", "C2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if got != "Kyle Pitts" {
		t.Errorf("expected Kyle Pitts in C2, got %q", got)
	}
}

func TestExportCommand_MissingSnapshot(t *testing.T) {
	_, err := runCmd(t, "export", "--name", "players", "--data-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "snapshot not found") {
		t.Errorf("expected snapshot not found error, got %v", err)
	}
}
