package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pfrederiksen/pfr-stats/internal/dataset"
	_ "modernc.org/sqlite"
)

// WriteSQLite writes ds to table in the SQLite database at path, replacing the
// table if it exists. Index parts become leading columns. Number columns are
// stored as REAL, everything else as TEXT, and missing cells as NULL.
func WriteSQLite(path, table string, ds dataset.Dataset) (err error) {
	if strings.TrimSpace(table) == "" {
		return fmt.Errorf("table name is required")
	}

	header, rows := ds.Table()
	if len(header) == 0 {
		return fmt.Errorf("dataset has no columns")
	}
	types := sqliteTypes(header, rows)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	defs := make([]string, len(header))
	cols := make([]string, len(header))
	for i, name := range header {
		cols[i] = quoteIdent(name)
		defs[i] = cols[i] + " " + types[i]
	}

	if _, err = tx.Exec(`DROP TABLE IF EXISTS ` + quoteIdent(table)); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	if _, err = tx.Exec(`CREATE TABLE ` + quoteIdent(table) + ` (` + strings.Join(defs, ", ") + `)`); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(header)), ",")
	stmt, err := tx.Prepare(`INSERT INTO ` + quoteIdent(table) + ` (` + strings.Join(cols, ", ") + `) VALUES (` + ph + `)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = sqliteValue(v)
		}
		if _, err = stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if n := len(ds.IndexNames); n > 0 {
		idx := make([]string, n)
		copy(idx, cols[:n])
		create := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
			quoteIdent("idx_"+table+"_key"), quoteIdent(table), strings.Join(idx, ", "))
		if _, err = tx.Exec(create); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func sqliteTypes(header []string, rows [][]dataset.Value) []string {
	types := make([]string, len(header))
	for i := range header {
		numeric, seen := true, false
		for _, row := range rows {
			switch row[i].Kind() {
			case dataset.KindNumber:
				seen = true
			case dataset.KindText:
				numeric = false
			}
		}
		if numeric && seen {
			types[i] = "REAL"
		} else {
			types[i] = "TEXT"
		}
	}
	return types
}

func sqliteValue(v dataset.Value) any {
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ := v.Float()
		return f
	case dataset.KindText:
		return v.String()
	default:
		return nil
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
