// Package cli implements the command-line interface for pfr-stats.
//
// The cli package provides the Cobra-based CLI with commands for extracting
// combine results (combine), college statistics by player (players), college
// statistics for every combine participant (college), and for exporting saved
// snapshots to SQLite (export). Settings are resolved from the config package
// and then from flags. Output is written as an aligned text table, JSON, CSV
// or an xlsx workbook.
package cli
