// Package table reads Sports Reference statistics tables out of parsed HTML documents.
//
// Every cell on those pages carries a data-stat attribute naming its statistic. ExtractRows
// turns each table row into a dataset.Record keyed by that attribute, using a pluggable
// function to read the cell value.
package table
