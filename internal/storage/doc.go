// Package storage persists extracted datasets.
//
// Snapshots are JSON files named <name>.json in the data directory, which
// defaults to ~/.local/share/pfr-stats/. A snapshot keeps column types, the
// composite index and missing cells, so a later run can reload it without
// fetching again. WriteSQLite exports a dataset as a single SQLite table.
package storage
