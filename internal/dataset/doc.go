// Package dataset holds the tabular model shared by the combine and player extractors.
//
// Cells are tagged values (missing, text or number). Records produced from HTML rows are
// assembled into named columns, and each column settles on a single type only after every
// row has been collected: it becomes numeric when all of its non-missing cells parse as
// numbers, and stays text otherwise. Datasets carry an optional composite index whose keys
// are assigned by the aggregators.
package dataset
