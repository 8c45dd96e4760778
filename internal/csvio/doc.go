// Package csvio reads and writes the flat CSV exports the reconciler works
// on. Input files are decoded to UTF-8 whatever the exporting tool used (UTF-8
// with or without BOM, UTF-16 with BOM, or Windows-1252), and rows are keyed
// by header so that companion columns can be looked up by name.
package csvio
