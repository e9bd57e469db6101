// Package export serialises gap result sets.
//
// Tabular formats (CSV and XLSX) use the fixed column order of
// driven.ExportColumns with the Insight Score rounded to two decimals.
// JSON and SQLite exports additionally carry the paper title and DOI.
package export
